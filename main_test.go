package main

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/medishare/cpabe-core/codec"
	"github.com/medishare/cpabe-core/keystore"
	"github.com/medishare/cpabe-core/policy"
)

func TestEndToEndRecordFlow(t *testing.T) {
	ctx, err := keystore.NewCryptoContext(keystore.Config{Scheme: keystore.SchemeMSPABE, Dir: t.TempDir()})
	require.NoError(t, err)
	_, err = ctx.Initialize()
	require.NoError(t, err)
	m, pk, msk, err := ctx.MSPABE()
	require.NoError(t, err)

	rendered := policy.FamilyPolicy.Render("P123", nil)
	ev := policy.NewEvaluator()
	require.True(t, ev.Satisfies(rendered, []string{"family_members:P123"}))
	require.False(t, ev.Satisfies(rendered, []string{"family_members:P999"}))

	sk, err := m.KeyGen(pk, msk, []string{"family_members:P123"})
	require.NoError(t, err)

	encap, err := m.RandomMessage(pk)
	require.NoError(t, err)
	ct, err := m.Encrypt(pk, encap, rendered)
	require.NoError(t, err)

	record := []byte("diagnosis: all clear")
	sealed, nonce, err := sealRecord(codec.DeriveContentKey(encap), record)
	require.NoError(t, err)

	recovered, err := m.Decrypt(pk, ct, sk)
	require.NoError(t, err)
	opened, err := openRecord(codec.DeriveContentKey(recovered), sealed, nonce)
	require.NoError(t, err)
	require.Equal(t, record, opened)
}

func TestSealedRecordRejectsWrongKey(t *testing.T) {
	ctx, err := keystore.NewCryptoContext(keystore.Config{Scheme: keystore.SchemeMSPABE, Dir: t.TempDir()})
	require.NoError(t, err)
	_, err = ctx.Initialize()
	require.NoError(t, err)
	m, pk, _, err := ctx.MSPABE()
	require.NoError(t, err)

	right, err := m.RandomMessage(pk)
	require.NoError(t, err)
	wrong, err := m.RandomMessage(pk)
	require.NoError(t, err)

	sealed, nonce, err := sealRecord(codec.DeriveContentKey(right), []byte("diagnosis: all clear"))
	require.NoError(t, err)
	_, err = openRecord(codec.DeriveContentKey(wrong), sealed, nonce)
	require.Error(t, err, "a content key from a different encapsulation must not authenticate")
}
