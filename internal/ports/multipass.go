package ports

// MultipassEncoder turns a customer payload into a Multipass login token
// for the shop whose Multipass secret is given.
type MultipassEncoder interface {
	Encode(secret string, customer map[string]interface{}) (string, error)
}
