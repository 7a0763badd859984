package chain

// Gas ceilings per state-changing operation. These bound the computational
// budget a caller authorizes; exceeding the ceiling aborts the call without
// committing its effects. Kept as named constants so they can be tuned
// without touching call sites.
const (
	GasCreateInvoice         uint64 = 500_000
	GasListInvoice           uint64 = 200_000
	GasBuyInvoice            uint64 = 300_000
	GasVerifyInvoice         uint64 = 200_000
	GasAddVerifiedIssuer     uint64 = 150_000
	GasUpdatePlatformFee     uint64 = 100_000
	GasUpdateVerificationFee uint64 = 100_000
)

// gasCeilings maps method names to their gas ceilings.
var gasCeilings = map[string]uint64{
	methodCreateInvoice:         GasCreateInvoice,
	methodListInvoice:           GasListInvoice,
	methodBuyInvoice:            GasBuyInvoice,
	methodVerifyInvoice:         GasVerifyInvoice,
	methodAddVerifiedIssuer:     GasAddVerifiedIssuer,
	methodUpdatePlatformFee:     GasUpdatePlatformFee,
	methodUpdateVerificationFee: GasUpdateVerificationFee,
}
