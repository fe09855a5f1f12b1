package rank

// Assumed BTC circulating supply used for the market-cap metric. The
// ranking compares orders of magnitude, so the drift between this figure
// and the exact issued supply is immaterial.
const btcSupply = 19_700_000

// troyOuncesPerTon converts metric tons of metal to troy ounces, the
// unit the price feed quotes metals in.
const troyOuncesPerTon = 32_150.7466

// Metal describes one precious-metal entity with its above-ground supply
// estimate in metric tons.
type Metal struct {
	Code string
	Name string
	Tons float64
}

// metals is the configured precious-metal set, in stable output order.
// Above-ground stock estimates: World Gold Council / Silver Institute.
var metals = []Metal{
	{Code: "xau", Name: "Gold", Tons: 216_265},
	{Code: "xag", Name: "Silver", Tons: 1_800_000},
}
