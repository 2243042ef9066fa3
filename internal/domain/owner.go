package domain

// OwnerKind distinguishes the two owning-identity variants a card can be
// attached to.
type OwnerKind string

const (
	OwnerKindUser     OwnerKind = "USER"
	OwnerKindCustomer OwnerKind = "CUSTOMER"
)

// OwnerRef identifies the owner of a card record. The canonical identity is
// the user id; customer-keyed callers are resolved to their owning user at
// the auth boundary before an OwnerRef is built.
type OwnerRef struct {
	Kind OwnerKind
	ID   string
}

// UserOwner builds an owner reference for a direct user.
func UserOwner(id string) OwnerRef {
	return OwnerRef{Kind: OwnerKindUser, ID: id}
}

// CustomerOwner builds an owner reference for a customer profile.
func CustomerOwner(id string) OwnerRef {
	return OwnerRef{Kind: OwnerKindCustomer, ID: id}
}

// Key returns the canonical storage key for the owner.
func (o OwnerRef) Key() string {
	return string(o.Kind) + ":" + o.ID
}

// IsZero reports whether the reference is unset.
func (o OwnerRef) IsZero() bool {
	return o.Kind == "" || o.ID == ""
}
