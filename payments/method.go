package payments

import (
	"errors"
	"regexp"
	"strings"
)

type Kind string

const (
	KindMobileMoney  Kind = "MOBILE_MONEY"
	KindCard         Kind = "CARD"
	KindBankTransfer Kind = "BANK_TRANSFER"
	KindCash         Kind = "CASH"
)

// Method is a closed set of payment method payloads. Adding a method means
// adding a variant and registering its charger, not editing a shared switch.
type Method interface {
	Kind() Kind
}

type MobileMoney struct {
	Phone string `json:"phoneNumber"`
}

func (MobileMoney) Kind() Kind { return KindMobileMoney }

type Card struct {
	Number      string `json:"cardNumber"`
	CVV         string `json:"cvv"`
	ExpiryMonth string `json:"expiryMonth"`
	ExpiryYear  string `json:"expiryYear"`
	Pin         string `json:"pin,omitempty"`
}

func (Card) Kind() Kind { return KindCard }

type BankTransfer struct{}

func (BankTransfer) Kind() Kind { return KindBankTransfer }

// Cash is wallet-funded and never reaches the gateway; the orchestrator
// settles it against the ledger directly.
type Cash struct{}

func (Cash) Kind() Kind { return KindCash }

var rwandaPrefix = regexp.MustCompile(`^0(78|79|72|73)\d{7}$`)

var ErrInvalidMSISDN = errors.New("invalid Rwanda phone number")

// NormalizeMSISDN accepts 07XXXXXXXX, 2507XXXXXXXX or +2507XXXXXXXX and
// returns the local 10-digit form, rejecting non-Rwanda prefixes.
func NormalizeMSISDN(phone string) (string, error) {
	p := strings.TrimSpace(phone)
	p = strings.TrimPrefix(p, "+")
	if strings.HasPrefix(p, "250") {
		p = "0" + p[3:]
	}
	if !rwandaPrefix.MatchString(p) {
		return "", ErrInvalidMSISDN
	}
	return p, nil
}
