package letter

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/sirosfoundation/go-ebics"
	"github.com/sirosfoundation/go-ebics/pkg/crypto"
	"github.com/sirosfoundation/go-ebics/pkg/keyring"
)

// KeyEntry is one user key as it appears on the letter.
type KeyEntry struct {
	Role     keyring.Role
	Version  string
	Bits     int
	Exponent string
	Modulus  string
	Hash     string
}

// Letter carries the formatted initialization letter data.
type Letter struct {
	Bank ebics.Bank
	User ebics.User
	Date time.Time

	SignatureA     KeyEntry
	Encryption     KeyEntry
	Authentication KeyEntry
}

// New prepares a letter from the user's keys. The hash of each key is
// computed with the digest encoding of the bank's protocol
// generation.
func New(bank ebics.Bank, user ebics.User, keys *keyring.KeyRing, now time.Time) (*Letter, error) {
	resolver, err := crypto.NewDigestResolver(bank.Version)
	if err != nil {
		return nil, err
	}

	l := &Letter{Bank: bank, User: user, Date: now}
	for _, entry := range []struct {
		dst *KeyEntry
		get func() (*keyring.Signature, error)
	}{
		{&l.SignatureA, keys.UserSignatureA},
		{&l.Encryption, keys.UserSignatureE},
		{&l.Authentication, keys.UserSignatureX},
	} {
		sig, err := entry.get()
		if err != nil {
			return nil, err
		}
		digest, err := resolver.Digest(sig)
		if err != nil {
			return nil, err
		}
		*entry.dst = KeyEntry{
			Role:     sig.Role,
			Version:  sig.Version,
			Bits:     sig.PublicKey.N.BitLen(),
			Exponent: groupBytes(exponentBytes(sig.PublicKey.E)),
			Modulus:  groupBytes(sig.PublicKey.N.Bytes()),
			Hash:     groupBytes(digest),
		}
	}
	return l, nil
}

// FormatText renders the letter as plain text, one section per key.
func (l *Letter) FormatText() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Initialization letter\n\n")
	fmt.Fprintf(&b, "Date:       %s\n", l.Date.Format("2006-01-02"))
	fmt.Fprintf(&b, "Host ID:    %s\n", l.Bank.HostID)
	fmt.Fprintf(&b, "Partner ID: %s\n", l.User.PartnerID)
	fmt.Fprintf(&b, "User ID:    %s\n", l.User.UserID)

	for _, entry := range []struct {
		title string
		key   KeyEntry
	}{
		{"Electronic signature key", l.SignatureA},
		{"Encryption key", l.Encryption},
		{"Authentication key", l.Authentication},
	} {
		fmt.Fprintf(&b, "\n%s (%s, %d bit)\n\n", entry.title, entry.key.Version, entry.key.Bits)
		fmt.Fprintf(&b, "Exponent:\n%s\n\n", entry.key.Exponent)
		fmt.Fprintf(&b, "Modulus:\n%s\n\n", entry.key.Modulus)
		fmt.Fprintf(&b, "Hash (SHA-256):\n%s\n", entry.key.Hash)
	}

	b.WriteString("\n\nI hereby confirm the above public keys for my electronic access.\n\n")
	b.WriteString("Place, date: ______________________\n\n")
	b.WriteString("Signature:   ______________________\n")
	return b.String()
}

// groupBytes renders bytes as uppercase hex pairs, sixteen pairs per
// line.
func groupBytes(data []byte) string {
	raw := strings.ToUpper(hex.EncodeToString(data))
	var b strings.Builder
	for i := 0; i < len(raw); i += 2 {
		if i > 0 {
			if i%32 == 0 {
				b.WriteByte('\n')
			} else {
				b.WriteByte(' ')
			}
		}
		b.WriteString(raw[i : i+2])
	}
	return b.String()
}

func exponentBytes(e int) []byte {
	if e == 0 {
		return []byte{0}
	}
	var out []byte
	for v := e; v > 0; v >>= 8 {
		out = append([]byte{byte(v)}, out...)
	}
	return out
}
