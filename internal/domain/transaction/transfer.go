package transaction

import (
	"github.com/grymey-ledger/internal/domain/wallet"
)

// AccountKind says who owns the value a leg moves
type AccountKind string

const (
	// AccountWallet legs are applied to a user's wallet and ledger
	AccountWallet AccountKind = "wallet"
	// AccountHolding legs park value on a domain record (escrow, circle pool, jar, card)
	AccountHolding AccountKind = "holding"
	// AccountExternal legs are system sources and sinks (funding, fees, penalties, billers)
	AccountExternal AccountKind = "external"
)

// Account identifies one side of a leg
type Account struct {
	Kind    AccountKind `json:"kind"`
	OwnerID string      `json:"owner_id,omitempty"`
	Mode    wallet.Mode `json:"mode,omitempty"`
	Ref     string      `json:"ref,omitempty"`
}

func WalletAccount(ownerID string, mode wallet.Mode) Account {
	return Account{Kind: AccountWallet, OwnerID: ownerID, Mode: mode}
}

func HoldingAccount(ref string) Account {
	return Account{Kind: AccountHolding, Ref: ref}
}

func ExternalAccount(ref string) Account {
	return Account{Kind: AccountExternal, Ref: ref}
}

// String renders the account for events and logs
func (a Account) String() string {
	if a.Kind == AccountWallet {
		return "wallet:" + a.OwnerID + "/" + string(a.Mode)
	}
	return string(a.Kind) + ":" + a.Ref
}

// Role describes why a leg exists
type Role string

const (
	RoleSender   Role = "sender"
	RoleReceiver Role = "receiver"
	RoleHold     Role = "hold"
	RoleFee      Role = "fee"
	RolePenalty  Role = "penalty"
	RoleSource   Role = "source"
)

// Leg is a signed movement against one account. Negative deltas debit.
type Leg struct {
	Account Account `json:"account"`
	Delta   int64   `json:"delta"`
	Role    Role    `json:"role"`
	// Create lets a crediting wallet leg open the wallet when it does not exist yet
	Create bool `json:"-"`
}

// Debit builds a debiting wallet leg
func Debit(ownerID string, mode wallet.Mode, amount int64) Leg {
	return Leg{Account: WalletAccount(ownerID, mode), Delta: -amount, Role: RoleSender}
}

// Credit builds a crediting wallet leg
func Credit(ownerID string, mode wallet.Mode, amount int64) Leg {
	return Leg{Account: WalletAccount(ownerID, mode), Delta: amount, Role: RoleReceiver}
}

// TransferRequest is the input to one Transfer Engine call
type TransferRequest struct {
	Type       Type
	Prefix     string // reference prefix, e.g. TRF
	Currency   string
	SenderID   string
	ReceiverID string
	// Amount is the headline amount; zero means the sum of the positive deltas
	Amount   int64
	Ghost    bool
	Metadata map[string]any
	Legs     []Leg
	// Hold leaves the transaction pending after its legs are applied
	Hold bool
}

// HeadlineAmount resolves the amount recorded on the transaction
func (r *TransferRequest) HeadlineAmount() int64 {
	if r.Amount > 0 {
		return r.Amount
	}
	var total int64
	for _, leg := range r.Legs {
		if leg.Delta > 0 {
			total += leg.Delta
		}
	}
	return total
}

// System sources and sinks for external legs
const (
	SystemFunding = "system:funding"
	SystemPenalty = "system:penalty"
	SystemFees    = "system:fees"
)

// BillerAccount is the external sink for bill payments to billerCode
func BillerAccount(billerCode string) Account {
	return ExternalAccount("biller:" + billerCode)
}
