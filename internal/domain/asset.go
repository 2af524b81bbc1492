package domain

import (
	"fmt"
	"regexp"
	"strings"
)

type AssetType string

const (
	AssetTypeCrypto    AssetType = "crypto"
	AssetTypeStock     AssetType = "stock"
	AssetTypeFX        AssetType = "fx"
	AssetTypeCommodity AssetType = "commodity"
	AssetTypeIndex     AssetType = "index"
)

var AssetTypes = []AssetType{
	AssetTypeCrypto,
	AssetTypeStock,
	AssetTypeFX,
	AssetTypeCommodity,
	AssetTypeIndex,
}

func ParseAssetType(s string) (AssetType, bool) {
	t := AssetType(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AssetTypes {
		if t == known {
			return t, true
		}
	}
	return "", false
}

// Asset describes a tradable instrument. It is treated as an immutable
// input by every fetch operation.
type Asset struct {
	Symbol string    `json:"symbol"`
	Name   string    `json:"name,omitempty"`
	Type   AssetType `json:"type"`
	ID     string    `json:"id,omitempty"`
	Base   string    `json:"base,omitempty"`
	Quote  string    `json:"quote,omitempty"`
	// PriceUSD is a pre-known formatted price; when set no provider is called.
	PriceUSD string `json:"price_usd,omitempty"`
}

var fxSymbolRe = regexp.MustCompile(`^[A-Za-z]{6}$`)

func (a Asset) Validate() error {
	if strings.TrimSpace(a.Symbol) == "" {
		return fmt.Errorf("%w: symbol is required", ErrInvalidAsset)
	}
	if _, ok := ParseAssetType(string(a.Type)); !ok {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidAsset, a.Type)
	}
	if a.Type == AssetTypeFX && (a.Base == "" || a.Quote == "") && !fxSymbolRe.MatchString(compactFX(a.Symbol)) {
		return fmt.Errorf("%w: fx asset needs base and quote", ErrInvalidAsset)
	}
	return nil
}

// FXSymbol concatenates the two legs (EUR+USD -> EURUSD), falling back to
// the symbol with separators removed.
func (a Asset) FXSymbol() string {
	if a.Base != "" && a.Quote != "" {
		return strings.ToUpper(a.Base + a.Quote)
	}
	return strings.ToUpper(compactFX(a.Symbol))
}

func compactFX(s string) string {
	return strings.NewReplacer("/", "", "-", "", " ", "").Replace(s)
}
