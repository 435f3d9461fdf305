package storage

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind tags a Key.
type Kind uint8

const (
	KindInvoice Kind = iota + 1
	KindTokenID
	KindAdmin
	KindTokenAddress
)

func (k Kind) String() string {
	switch k {
	case KindInvoice:
		return "invoice"
	case KindTokenID:
		return "token_id"
	case KindAdmin:
		return "admin"
	case KindTokenAddress:
		return "token_address"
	default:
		return "unknown"
	}
}

// Key addresses one value in instance storage. Keys can only be built with
// the constructors below; only invoice keys carry an id.
type Key struct {
	kind Kind
	id   uint64
}

// Invoice addresses the invoice record with the given id.
func Invoice(id uint64) Key { return Key{kind: KindInvoice, id: id} }

// TokenID addresses the highest allocated invoice id.
func TokenID() Key { return Key{kind: KindTokenID} }

// Admin addresses the pool admin principal.
func Admin() Key { return Key{kind: KindAdmin} }

// TokenAddress addresses the asset lent by the pool.
func TokenAddress() Key { return Key{kind: KindTokenAddress} }

// Kind returns the key's tag.
func (k Key) Kind() Kind { return k.kind }

// ID returns the invoice id for KindInvoice keys and 0 otherwise.
func (k Key) ID() uint64 { return k.id }

// String renders the storage encoding of the key, e.g. "invoice/42" or "admin".
func (k Key) String() string {
	if k.kind == KindInvoice {
		return KindInvoice.String() + "/" + strconv.FormatUint(k.id, 10)
	}
	return k.kind.String()
}

// ParseKey is the inverse of Key.String.
func ParseKey(s string) (Key, error) {
	if rest, ok := strings.CutPrefix(s, KindInvoice.String()+"/"); ok {
		id, err := strconv.ParseUint(rest, 10, 64)
		if err != nil {
			return Key{}, fmt.Errorf("parse invoice key %q: %w", s, err)
		}
		return Invoice(id), nil
	}
	for _, k := range []Kind{KindTokenID, KindAdmin, KindTokenAddress} {
		if s == k.String() {
			return Key{kind: k}, nil
		}
	}
	return Key{}, fmt.Errorf("unknown storage key %q", s)
}
