package waters11

import (
	"testing"

	"github.com/fentec-project/gofe/abe"
	"github.com/stretchr/testify/require"

	"github.com/medishare/cpabe-core/attr"
)

func TestWaters11_FullFlow(t *testing.T) {
	w, err := NewWaters11(10)
	require.NoError(t, err)

	pk, msk, err := w.Setup()
	require.NoError(t, err)
	require.Len(t, pk.U1, 10, "one slot element per universe member")
	require.Len(t, pk.U2, 10)

	sk, err := w.KeyGen(pk, msk, []int{1, 2, 5})
	require.NoError(t, err)

	msp, err := abe.BooleanToMSP("1 AND (2 OR 3)", false)
	require.NoError(t, err)

	msg, err := w.RandomMessage(pk)
	require.NoError(t, err)
	ct, err := w.Encrypt(pk, msg, msp)
	require.NoError(t, err)

	dec, err := w.Decrypt(pk, ct, sk)
	require.NoError(t, err)
	require.Equal(t, msg.Marshal(), dec.Marshal(), "decryption should recover the encapsulated element")
}

func TestWaters11_UnsatisfyingKey(t *testing.T) {
	w, err := NewWaters11(10)
	require.NoError(t, err)
	pk, msk, err := w.Setup()
	require.NoError(t, err)

	sk, err := w.KeyGen(pk, msk, []int{2, 3})
	require.NoError(t, err)

	msp, err := abe.BooleanToMSP("1 AND (2 OR 3)", false)
	require.NoError(t, err)
	msg, err := w.RandomMessage(pk)
	require.NoError(t, err)
	ct, err := w.Encrypt(pk, msg, msp)
	require.NoError(t, err)

	_, err = w.Decrypt(pk, ct, sk)
	require.Error(t, err, "slots {2, 3} lack the mandatory slot 1")
}

func TestWaters11_KeyGenRejections(t *testing.T) {
	w, err := NewWaters11(5)
	require.NoError(t, err)
	pk, msk, err := w.Setup()
	require.NoError(t, err)

	_, err = w.KeyGen(pk, msk, nil)
	require.Error(t, err, "an empty attribute set can never satisfy a policy")

	_, err = w.KeyGen(pk, msk, []int{0})
	require.Error(t, err, "slot 0 is reserved")

	_, err = w.KeyGen(pk, msk, []int{6})
	require.Error(t, err, "slot outside the universe bound")
}

func TestWaters11_EncryptRejectsNonSlotLabels(t *testing.T) {
	w, err := NewWaters11(5)
	require.NoError(t, err)
	pk, _, err := w.Setup()
	require.NoError(t, err)

	msp, err := abe.BooleanToMSP("doctor OR nurse", false)
	require.NoError(t, err)
	msg, err := w.RandomMessage(pk)
	require.NoError(t, err)

	_, err = w.Encrypt(pk, msg, msp)
	require.Error(t, err, "rows must be labelled with decimal slot indices")
}

func TestWaters11_EncryptRejectsMissingSlotElement(t *testing.T) {
	w, err := NewWaters11(4)
	require.NoError(t, err)
	pk, _, err := w.Setup()
	require.NoError(t, err)

	// A truncated public key, e.g. decoded from an older deployment with a
	// smaller universe.
	delete(pk.U1, 3)

	msp, err := abe.BooleanToMSP("3", false)
	require.NoError(t, err)
	msg, err := w.RandomMessage(pk)
	require.NoError(t, err)

	_, err = w.Encrypt(pk, msg, msp)
	require.Error(t, err, "a missing slot element must surface as an error, not a panic")
}

func TestWaters11_ForeignSetupYieldsGarbage(t *testing.T) {
	w, err := NewWaters11(5)
	require.NoError(t, err)
	pk, _, err := w.Setup()
	require.NoError(t, err)
	pk2, msk2, err := w.Setup()
	require.NoError(t, err)

	// Key issued under the second setup against a ciphertext from the first.
	sk, err := w.KeyGen(pk2, msk2, []int{1})
	require.NoError(t, err)

	msp, err := abe.BooleanToMSP("1", false)
	require.NoError(t, err)
	msg, err := w.RandomMessage(pk)
	require.NoError(t, err)
	ct, err := w.Encrypt(pk, msg, msp)
	require.NoError(t, err)

	dec, err := w.Decrypt(pk, ct, sk)
	require.NoError(t, err, "the algebra goes through, the result is just wrong")
	require.NotEqual(t, msg.Marshal(), dec.Marshal(), "mismatched setups must not decrypt")
}

func TestWaters11_RegistryRewrittenPolicy(t *testing.T) {
	w, err := NewWaters11(8)
	require.NoError(t, err)
	pk, msk, err := w.Setup()
	require.NoError(t, err)

	reg := attr.NewRegistry()
	names := attr.Normalize("doctor, nurse, hospital_1")
	slots := reg.Encode(names)
	require.Equal(t, []int{1, 2, 3}, slots)

	rewritten := reg.RewritePolicy("DOCTOR AND (NURSE OR HOSPITAL_1)")
	require.Equal(t, "1 AND (2 OR 3)", rewritten)
	msp, err := abe.BooleanToMSP(rewritten, false)
	require.NoError(t, err)

	sk, err := w.KeyGen(pk, msk, reg.Encode([]string{"DOCTOR", "NURSE"}))
	require.NoError(t, err)
	msg, err := w.RandomMessage(pk)
	require.NoError(t, err)
	ct, err := w.Encrypt(pk, msg, msp)
	require.NoError(t, err)
	dec, err := w.Decrypt(pk, ct, sk)
	require.NoError(t, err)
	require.Equal(t, msg.Marshal(), dec.Marshal())
}

func TestWaters11_ValueRoundTrip(t *testing.T) {
	w, err := NewWaters11(4)
	require.NoError(t, err)
	pk, msk, err := w.Setup()
	require.NoError(t, err)
	sk, err := w.KeyGen(pk, msk, []int{1, 3})
	require.NoError(t, err)

	pk2, err := PubKeyFromValue(pk.Value())
	require.NoError(t, err)
	require.Equal(t, pk.EggAlpha.Marshal(), pk2.EggAlpha.Marshal())
	require.Len(t, pk2.U1, 4)

	msk2, err := MasterKeyFromValue(msk.Value())
	require.NoError(t, err)
	require.Equal(t, 0, msk.Alpha.Cmp(msk2.Alpha))

	sk2, err := SecretKeyFromValue(sk.Value())
	require.NoError(t, err)
	require.ElementsMatch(t, sk.Attrs, sk2.Attrs)

	// The rebuilt key must still decrypt.
	msp, err := abe.BooleanToMSP("3 OR 2", false)
	require.NoError(t, err)
	msg, err := w.RandomMessage(pk2)
	require.NoError(t, err)
	ct, err := w.Encrypt(pk2, msg, msp)
	require.NoError(t, err)
	dec, err := w.Decrypt(pk2, ct, sk2)
	require.NoError(t, err)
	require.Equal(t, msg.Marshal(), dec.Marshal())
}
