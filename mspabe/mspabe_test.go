package mspabe

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/medishare/cpabe-core/codec"
)

func TestMSPABE_FullFlow(t *testing.T) {
	m := NewMSPABE()
	pk, msk, err := m.Setup()
	require.NoError(t, err)

	sk, err := m.KeyGen(pk, msk, []string{"doctor", "hospital_1"})
	require.NoError(t, err)

	msg, err := m.RandomMessage(pk)
	require.NoError(t, err)
	ct, err := m.Encrypt(pk, msg, "doctor AND (hospital_1 OR hospital_2)")
	require.NoError(t, err)
	require.Equal(t, "doctor AND (hospital_1 OR hospital_2)", ct.Policy)

	dec, err := m.Decrypt(pk, ct, sk)
	require.NoError(t, err)
	require.Equal(t, msg.Marshal(), dec.Marshal(), "decryption should recover the encapsulated element")
}

func TestMSPABE_ParametrizedAttribute(t *testing.T) {
	m := NewMSPABE()
	pk, msk, err := m.Setup()
	require.NoError(t, err)

	msg, err := m.RandomMessage(pk)
	require.NoError(t, err)
	ct, err := m.Encrypt(pk, msg, "family_members:P123 OR doctor")
	require.NoError(t, err)

	family, err := m.KeyGen(pk, msk, []string{"family_members:P123"})
	require.NoError(t, err)
	dec, err := m.Decrypt(pk, ct, family)
	require.NoError(t, err)
	require.Equal(t, msg.Marshal(), dec.Marshal())

	stranger, err := m.KeyGen(pk, msk, []string{"family_members:P999"})
	require.NoError(t, err)
	_, err = m.Decrypt(pk, ct, stranger)
	require.Error(t, err, "another patient's family key must not open the record")
}

func TestMSPABE_Rejections(t *testing.T) {
	m := NewMSPABE()
	pk, msk, err := m.Setup()
	require.NoError(t, err)

	_, err = m.KeyGen(pk, msk, nil)
	require.Error(t, err, "an empty attribute set can never satisfy a policy")

	_, err = m.KeyGen(pk, msk, []string{"doctor", ""})
	require.Error(t, err, "blank attribute name")

	msg, err := m.RandomMessage(pk)
	require.NoError(t, err)
	_, err = m.Encrypt(pk, msg, "doctor AND (nurse")
	require.Error(t, err, "malformed policies are rejected before any cryptographic work")
}

func TestMSPABE_ValueRoundTrip(t *testing.T) {
	m := NewMSPABE()
	pk, msk, err := m.Setup()
	require.NoError(t, err)
	sk, err := m.KeyGen(pk, msk, []string{"doctor"})
	require.NoError(t, err)

	// Through the transport envelope, the way keys reach clients.
	raw, err := codec.EncodeTransport(sk.Value())
	require.NoError(t, err)
	val, err := codec.DecodeTransport(raw)
	require.NoError(t, err)
	sk2, err := SecretKeyFromValue(val)
	require.NoError(t, err)
	require.Equal(t, sk.Attrs, sk2.Attrs)

	raw, err = codec.EncodeTransport(pk.Value())
	require.NoError(t, err)
	val, err = codec.DecodeTransport(raw)
	require.NoError(t, err)
	pk2, err := PubKeyFromValue(val)
	require.NoError(t, err)

	msg, err := m.RandomMessage(pk2)
	require.NoError(t, err)
	ct, err := m.Encrypt(pk2, msg, "doctor OR nurse")
	require.NoError(t, err)
	dec, err := m.Decrypt(pk2, ct, sk2)
	require.NoError(t, err)
	require.Equal(t, msg.Marshal(), dec.Marshal())
}
