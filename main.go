// Command cpabe-demo walks the whole lifecycle on a throwaway deployment:
// setup, key issuance, policy gating, hybrid encryption of a sample record
// and client-side recovery.
package main

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"flag"
	"io"
	"log"

	"github.com/medishare/cpabe-core/codec"
	"github.com/medishare/cpabe-core/keystore"
	"github.com/medishare/cpabe-core/mspabe"
	"github.com/medishare/cpabe-core/policy"
)

func main() {
	dir := flag.String("keys", "./keys", "directory holding the persisted scheme material")
	patient := flag.String("patient", "P123", "patient id the record belongs to")
	flag.Parse()

	ctx, err := keystore.NewCryptoContext(keystore.Config{Scheme: keystore.SchemeMSPABE, Dir: *dir})
	if err != nil {
		log.Fatal(err)
	}
	already, err := ctx.Initialize()
	if err != nil {
		log.Fatal(err)
	}
	if already {
		log.Printf("scheme already configured, reusing material in %s", *dir)
	} else {
		log.Printf("fresh setup written to %s", *dir)
	}

	m, pk, msk, err := ctx.MSPABE()
	if err != nil {
		log.Fatal(err)
	}

	rendered := policy.FamilyPolicy.Render(*patient, nil)
	log.Printf("record policy: %s", rendered)

	// Server-side gate: the requester's attributes against the stored policy.
	ev := policy.NewEvaluator()
	requester := []string{"family_members:" + *patient}
	decision := ev.Evaluate(rendered, requester)
	if !decision.Satisfied {
		log.Fatalf("access denied, missing attributes: %v", decision.Missing)
	}
	log.Printf("access granted for %v", requester)

	sk, err := m.KeyGen(pk, msk, requester)
	if err != nil {
		log.Fatal(err)
	}
	skRaw, err := codec.EncodeTransport(sk.Value())
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("issued secret key, %d bytes in transport form", len(skRaw))

	// Encapsulate a fresh content key under the policy, then seal the record
	// with it the way a client would.
	encap, err := m.RandomMessage(pk)
	if err != nil {
		log.Fatal(err)
	}
	ct, err := m.Encrypt(pk, encap, rendered)
	if err != nil {
		log.Fatal(err)
	}

	record := []byte("diagnosis: all clear; next appointment in six months")
	sealed, nonce, err := sealRecord(codec.DeriveContentKey(encap), record)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("record sealed, %d bytes of ciphertext", len(sealed))

	// Client side: decapsulate with the reloaded key, rederive the content
	// key, open the record.
	skVal, err := codec.DecodeTransport(skRaw)
	if err != nil {
		log.Fatal(err)
	}
	clientSK, err := mspabe.SecretKeyFromValue(skVal)
	if err != nil {
		log.Fatal(err)
	}
	recovered, err := m.Decrypt(pk, ct, clientSK)
	if err != nil {
		log.Fatal(err)
	}
	opened, err := openRecord(codec.DeriveContentKey(recovered), sealed, nonce)
	if err != nil {
		log.Fatal(err)
	}
	if !bytes.Equal(opened, record) {
		log.Fatal("recovered record does not match the original")
	}
	log.Printf("record recovered: %s", opened)
}

func sealRecord(key, plaintext []byte) (sealed, nonce []byte, err error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, nil, err
	}
	nonce = make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, nil, err
	}
	return gcm.Seal(nil, nonce, plaintext, nil), nonce, nil
}

func openRecord(key, sealed, nonce []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return gcm.Open(nil, nonce, sealed, nil)
}
