package rn

const (
	// Terminal control
	CRLF = "\r\n"

	// Command mnemonics. Arguments are space-separated, binary values
	// (EUIs, keys, payloads) are hex-encoded.
	CmdSysGetVer    = "sys get ver"
	CmdSysGetHWEUI  = "sys get hweui"
	CmdSysSleep     = "sys sleep"
	CmdMacReset     = "mac reset"
	CmdSetDevEUI    = "mac set deveui"
	CmdSetAppEUI    = "mac set appeui"
	CmdSetAppKey    = "mac set appkey"
	CmdSetPwrIdx    = "mac set pwridx"
	CmdSetDataRate  = "mac set dr"
	CmdSetADR       = "mac set adr"
	CmdSetAutoReply = "mac set ar"
	CmdMacSave      = "mac save"
	CmdMacJoin      = "mac join"
	CmdMacTx        = "mac tx"

	// Command arguments
	JoinOTAA      = "otaa"
	TxUnconfirmed = "uncnf"
	TxConfirmed   = "cnf"
	On            = "on"
	Off           = "off"

	// Response tokens
	Ok              = "ok"
	InvalidParam    = "invalid_param"
	NotJoined       = "not_joined"
	NoFreeCh        = "no_free_ch"
	Busy            = "busy"
	Silent          = "silent"
	MacPaused       = "mac_paused"
	MacErr          = "mac_err"
	RadioErr        = "radio_err"
	KeysNotInit     = "keys_not_init"
	InvalidDataLen  = "invalid_data_len"
	FrameCounterErr = "frame_counter_err_rejoin_needed"
	MacTxOk         = "mac_tx_ok"
	MacTxFail       = "mac_tx_fail"
	MacRx           = "mac_rx"
	Accepted        = "accepted"
	Denied          = "denied"
)

// Kind identifies which command class produced a response line. The module
// reuses tokens across commands ("ok" after "mac set" vs. after "mac tx"),
// so classification is always relative to a Kind.
type Kind int

const (
	KindConfig     Kind = iota // "mac set ...", "mac reset", "mac save"
	KindQuery                  // "sys get ..." value queries
	KindJoin                   // "mac join" immediate acknowledgement
	KindJoinResult             // asynchronous join outcome line
	KindTx                     // "mac tx" immediate acknowledgement
	KindTxResult               // asynchronous transmit outcome line
)

// OutcomeKind tags the result of classifying one response line.
type OutcomeKind int

const (
	OutcomeOk           OutcomeKind = iota // success, Payload may carry a value
	OutcomeKnownError                      // a recognized module error token, in Code
	OutcomeUnrecognized                    // text outside the known token set, in Text
	OutcomeTimeout                         // no terminal line within the command budget
)

// Outcome is the classified result of a command. It is constructed fresh per
// command and consumed immediately by the caller.
type Outcome struct {
	Kind    OutcomeKind
	Payload string // value carried by an Ok outcome (query result, downlink)
	Code    string // module token for a KnownError outcome
	Text    string // raw line for an Unrecognized outcome
	Err     error  // underlying transport error, if any
}

// Timeout reports whether the outcome is a command timeout.
func (o Outcome) Timeout() bool { return o.Kind == OutcomeTimeout }
