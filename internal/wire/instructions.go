package wire

// Class bytes. The session mode fixes which one is used.
const (
	ClassPlain byte = 0x59
	ClassDKG   byte = 0x63
)

// Instructions understood by the device application.
const (
	InsGetVersion          byte = 0x00
	InsGetKeys             byte = 0x01
	InsSign                byte = 0x02
	InsDkgIdentity         byte = 0x10
	InsDkgRound1           byte = 0x11
	InsDkgRound2           byte = 0x12
	InsDkgRound3Min        byte = 0x13
	InsDkgGetCommitments   byte = 0x14
	InsDkgSign             byte = 0x15
	InsDkgGetKeys          byte = 0x16
	InsDkgGetNonces        byte = 0x17
	InsDkgGetPublicPackage byte = 0x18
	InsDkgBackupKeys       byte = 0x19
	InsDkgRestoreKeys      byte = 0x1a
	InsGetResult           byte = 0x1b
	InsReviewTx            byte = 0x1c
)

// P1 values for key retrieval.
const (
	P1OnlyRetrieve        byte = 0x00
	P1ShowAddressInDevice byte = 0x01
)

// P2Default is sent when an instruction takes no P2 argument.
const P2Default byte = 0x00
