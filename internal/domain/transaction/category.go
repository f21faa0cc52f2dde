package transaction

import (
	"strings"
)

type Category struct {
	Key         string `json:"key"`
	DisplayName string `json:"displayName"`
}

// CategoryMapping maps Plaid personal finance category primaries to display names
// Key: upstream primary code (e.g., "FOOD_AND_DRINK")
var CategoryMapping = map[string]Category{
	"INCOME":                    {Key: "INCOME", DisplayName: "Income"},
	"TRANSFER_IN":               {Key: "TRANSFER_IN", DisplayName: "Transfer In"},
	"TRANSFER_OUT":              {Key: "TRANSFER_OUT", DisplayName: "Transfer Out"},
	"LOAN_PAYMENTS":             {Key: "LOAN_PAYMENTS", DisplayName: "Loan Payments"},
	"BANK_FEES":                 {Key: "BANK_FEES", DisplayName: "Bank Fees"},
	"ENTERTAINMENT":             {Key: "ENTERTAINMENT", DisplayName: "Entertainment"},
	"FOOD_AND_DRINK":            {Key: "FOOD_AND_DRINK", DisplayName: "Food & Drink"},
	"GENERAL_MERCHANDISE":       {Key: "GENERAL_MERCHANDISE", DisplayName: "Shopping"},
	"HOME_IMPROVEMENT":          {Key: "HOME_IMPROVEMENT", DisplayName: "Home"},
	"MEDICAL":                   {Key: "MEDICAL", DisplayName: "Medical"},
	"PERSONAL_CARE":             {Key: "PERSONAL_CARE", DisplayName: "Personal Care"},
	"GENERAL_SERVICES":          {Key: "GENERAL_SERVICES", DisplayName: "Services"},
	"GOVERNMENT_AND_NON_PROFIT": {Key: "GOVERNMENT_AND_NON_PROFIT", DisplayName: "Government"},
	"TRANSPORTATION":            {Key: "TRANSPORTATION", DisplayName: "Transportation"},
	"TRAVEL":                    {Key: "TRAVEL", DisplayName: "Travel"},
	"RENT_AND_UTILITIES":        {Key: "RENT_AND_UTILITIES", DisplayName: "Rent & Utilities"},
}

// CategoryLabel returns the display name for a category key.
// Unknown keys (including user-defined categories) are title-cased with
// underscores turned into spaces, so "PET_SUPPLIES" becomes "Pet Supplies".
func CategoryLabel(key string) string {
	if key == "" {
		return ""
	}
	if cat, ok := CategoryMapping[key]; ok {
		return cat.DisplayName
	}

	words := strings.Fields(strings.ReplaceAll(key, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}
