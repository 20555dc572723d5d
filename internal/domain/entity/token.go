package entity

// TokenMetadata holds the display details of a supported token.
type TokenMetadata struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Decimals uint8  `json:"decimals"`
	Logo     string `json:"logo,omitempty"`
}
