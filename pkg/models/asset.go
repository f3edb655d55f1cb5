package models

// AssetClass is the coarse category that drives advisory persona and news policy.
type AssetClass string

const (
	AssetTaiwanEquity      AssetClass = "Taiwan Stock"
	AssetCommodityOrCrypto AssetClass = "Commodity/Crypto"
	AssetOther             AssetClass = "US Stock/Global"
)

// String implements fmt.Stringer.
func (a AssetClass) String() string { return string(a) }

// Valid reports whether a is one of the known classes.
func (a AssetClass) Valid() bool {
	switch a {
	case AssetTaiwanEquity, AssetCommodityOrCrypto, AssetOther:
		return true
	}
	return false
}
