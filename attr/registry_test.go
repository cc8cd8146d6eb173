package attr

import (
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistryEncodeDecode(t *testing.T) {
	r := NewRegistry()

	ids := r.Encode([]string{"DOCTOR", "NURSE", "DOCTOR"})
	require.Equal(t, []int{1, 2, 1}, ids, "slots are assigned in creation order and reused for known names")
	require.Equal(t, 2, r.Len())

	again := r.Encode([]string{"NURSE", "HOSPITAL_1"})
	require.Equal(t, []int{2, 3}, again)

	names := r.Decode([]int{3, 1, 2})
	require.Equal(t, []string{"HOSPITAL_1", "DOCTOR", "NURSE"}, names)
}

func TestRegistryDecodeFallback(t *testing.T) {
	r := NewRegistry()
	r.Encode([]string{"DOCTOR"})

	names := r.Decode([]int{1, 99, 0})
	require.Equal(t, []string{"DOCTOR", "99", "0"}, names,
		"slots without a recorded name decode to their decimal form")
}

func TestRegistryConcurrentEncode(t *testing.T) {
	r := NewRegistry()
	const workers = 16

	results := make([][]int, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			results[w] = r.Encode([]string{"A", "B", "C", "D"})
		}(w)
	}
	wg.Wait()

	for w := 1; w < workers; w++ {
		require.Equal(t, results[0], results[w], "all workers must agree on the slot assignment")
	}
	require.Equal(t, 4, r.Len(), "no name may be allocated twice")
}

func TestRewritePolicy(t *testing.T) {
	r := NewRegistry()
	r.Encode([]string{"doctor", "doctor_assistant", "family_members:P123"})

	got := r.RewritePolicy("doctor_assistant OR (doctor AND family_members:P123)")
	require.Equal(t, "2 OR (1 AND 3)", got,
		"longer names rewrite first so prefixes stay intact")

	got = r.RewritePolicy("doctor OR radiologist")
	require.Equal(t, "1 OR radiologist", got, "unregistered names pass through untouched")
}

func TestNormalize(t *testing.T) {
	got := Normalize(" doctor, nurse ,,  hospital_1 ")
	require.Equal(t, []string{"DOCTOR", "NURSE", "HOSPITAL_1"}, got)

	require.Empty(t, Normalize("  , ,"))
}

func TestEffectiveName(t *testing.T) {
	require.Equal(t, "family_members:P123", EffectiveName("family_members", "P123"))
	require.Equal(t, "doctor", EffectiveName("doctor", ""))
}

func TestRegistrySlotsSurviveHighIDs(t *testing.T) {
	r := NewRegistry()
	var names []string
	for i := 1; i <= 50; i++ {
		names = append(names, "ATTR"+strconv.Itoa(i))
	}
	ids := r.Encode(names)
	require.Equal(t, 50, ids[len(ids)-1])
	require.Equal(t, []string{"ATTR50"}, r.Decode([]int{50}))
}
