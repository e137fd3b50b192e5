package ledger

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

const accountsKey = "accounts"

// document is the decoded form of the ledger file. Keys the economy does not
// own (top-level or per account) are carried through untouched.
type document struct {
	accounts map[string]*Account
	extra    map[string]json.RawMessage
	// accountExtra holds unknown per-account fields keyed by user id.
	accountExtra map[string]map[string]json.RawMessage
}

type bankRecord struct {
	Balance  *int64 `json:"balance"`
	Capacity *int64 `json:"capacity"`
}

func decodeDocument(data []byte, opts Options) (document, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return document{}, errors.New("document is empty")
	}
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return document{}, fmt.Errorf("decode document: %w", err)
	}
	rawAccounts, ok := top[accountsKey]
	if !ok {
		return document{}, fmt.Errorf("document has no %q object", accountsKey)
	}
	var accounts map[string]map[string]json.RawMessage
	if err := json.Unmarshal(rawAccounts, &accounts); err != nil {
		return document{}, fmt.Errorf("decode %s: %w", accountsKey, err)
	}
	if accounts == nil {
		return document{}, fmt.Errorf("%q is null", accountsKey)
	}
	doc := document{
		accounts:     make(map[string]*Account, len(accounts)),
		extra:        map[string]json.RawMessage{},
		accountExtra: map[string]map[string]json.RawMessage{},
	}
	for key, value := range top {
		if key != accountsKey {
			doc.extra[key] = value
		}
	}
	for user, fields := range accounts {
		if fields == nil {
			return document{}, fmt.Errorf("account %s is null", user)
		}
		acct, extra, err := decodeAccount(fields, opts)
		if err != nil {
			return document{}, fmt.Errorf("account %s: %w", user, err)
		}
		doc.accounts[user] = acct
		if len(extra) > 0 {
			doc.accountExtra[user] = extra
		}
	}
	return doc, nil
}

func decodeAccount(fields map[string]json.RawMessage, opts Options) (*Account, map[string]json.RawMessage, error) {
	acct := StarterAccount(Options{
		DefaultWallet:       opts.DefaultWallet,
		DefaultBankBalance:  opts.DefaultBankBalance,
		DefaultBankCapacity: opts.DefaultBankCapacity,
	})
	extra := map[string]json.RawMessage{}
	for key, raw := range fields {
		switch key {
		case opts.WalletField:
			if err := json.Unmarshal(raw, &acct.Wallet); err != nil {
				return nil, nil, fmt.Errorf("%s: %w", key, err)
			}
			if acct.Wallet < 0 {
				return nil, nil, fmt.Errorf("%s is negative (%d)", key, acct.Wallet)
			}
		case opts.InventoryField:
			var inv map[string]int64
			if err := json.Unmarshal(raw, &inv); err != nil {
				return nil, nil, fmt.Errorf("%s: %w", key, err)
			}
			for item, qty := range inv {
				if qty > 0 {
					acct.Inventory[item] = qty
				}
			}
		case opts.BankField:
			var rec bankRecord
			if err := json.Unmarshal(raw, &rec); err != nil {
				return nil, nil, fmt.Errorf("%s: %w", key, err)
			}
			if rec.Balance != nil {
				acct.Bank.Balance = *rec.Balance
			}
			if rec.Capacity != nil {
				acct.Bank.Capacity = *rec.Capacity
			}
			if acct.Bank.Balance < 0 || acct.Bank.Capacity < 0 {
				return nil, nil, fmt.Errorf("%s has a negative balance or capacity", key)
			}
		default:
			extra[key] = raw
		}
	}
	return &acct, extra, nil
}

func encodeDocument(doc document, opts Options) ([]byte, error) {
	top := make(map[string]any, len(doc.extra)+1)
	for key, value := range doc.extra {
		top[key] = value
	}
	accounts := make(map[string]map[string]any, len(doc.accounts))
	for user, acct := range doc.accounts {
		fields := make(map[string]any, 3+len(doc.accountExtra[user]))
		for key, value := range doc.accountExtra[user] {
			fields[key] = value
		}
		inv := acct.Inventory
		if inv == nil {
			inv = map[string]int64{}
		}
		fields[opts.WalletField] = acct.Wallet
		fields[opts.InventoryField] = inv
		fields[opts.BankField] = map[string]int64{
			"balance":  acct.Bank.Balance,
			"capacity": acct.Bank.Capacity,
		}
		accounts[user] = fields
	}
	top[accountsKey] = accounts
	// encoding/json writes map keys in sorted order, which keeps diffs stable.
	data, err := json.MarshalIndent(top, "", "    ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
