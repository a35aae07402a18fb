package syscall

// Number is a syscall number for callers that dispatch numerically.
type Number int

const (
	SysFork Number = iota + 1
	SysExit
	SysWait
	SysKill
	SysGetpid
	SysSbrk
	SysSleep
	SysUptime
	SysShutdown
	SysEnableSchedTrace
	SysForkWinner
	SysSetSched
	SysTransferTickets
	SysTicketsOwned
)

// Syscall names.
const (
	Fork             = "fork"
	Exit             = "exit"
	Wait             = "wait"
	Kill             = "kill"
	Getpid           = "getpid"
	Sbrk             = "sbrk"
	Sleep            = "sleep"
	Uptime           = "uptime"
	Shutdown         = "shutdown"
	EnableSchedTrace = "enable_sched_trace"
	ForkWinner       = "fork_winner"
	SetSched         = "set_sched"
	TransferTickets  = "transfer_tickets"
	TicketsOwned     = "tickets_owned"
)

var names = map[Number]string{
	SysFork:             Fork,
	SysExit:             Exit,
	SysWait:             Wait,
	SysKill:             Kill,
	SysGetpid:           Getpid,
	SysSbrk:             Sbrk,
	SysSleep:            Sleep,
	SysUptime:           Uptime,
	SysShutdown:         Shutdown,
	SysEnableSchedTrace: EnableSchedTrace,
	SysForkWinner:       ForkWinner,
	SysSetSched:         SetSched,
	SysTransferTickets:  TransferTickets,
	SysTicketsOwned:     TicketsOwned,
}

// String returns the syscall name, or "" for unknown numbers
func (n Number) String() string {
	return names[n]
}

// Lookup maps a syscall name to its number.
func Lookup(name string) (Number, bool) {
	for n, s := range names {
		if s == name {
			return n, true
		}
	}
	return 0, false
}
