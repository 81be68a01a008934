package store

import (
	"context"
	"errors"
	"testing"

	"github.com/segmentio/ksuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aaronwong1989/goparcel/parcel"
	"github.com/aaronwong1989/goparcel/telecom"
)

func openStore(t *testing.T, enc parcel.StringEncoding) *Store {
	s, err := Open(Options{Path: t.TempDir(), Encoding: enc})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.Close()
	})
	return s
}

func conference(state int32, ids ...string) *telecom.ParcelableConference {
	name := "主持人"
	return telecom.NewParcelableConference(telecom.ConferenceParams{
		PhoneAccount:      telecom.NewPhoneAccountHandle("pkg/Svc", "sim1", 0),
		State:             state,
		ConnectionIds:     ids,
		ConnectTimeMillis: telecom.ConnectTimeNotSpecified,
		CallerDisplayName: &name,
		Extras:            parcel.Bundle{"room": "3F-301"},
	})
}

func TestStore_PutGet(t *testing.T) {
	for _, enc := range []parcel.StringEncoding{parcel.UTF8, parcel.UTF16} {
		t.Run(enc.String(), func(t *testing.T) {
			s := openStore(t, enc)
			rec := conference(telecom.StateActive, "c1", "c2")

			id, err := s.Put(rec)
			require.NoError(t, err)
			t.Logf("%s", id)

			got, err := s.Get(id)
			require.NoError(t, err)
			assert.Equal(t, rec.ConnectionIds(), got.ConnectionIds())
			assert.Equal(t, rec.PhoneAccount(), got.PhoneAccount())
			assert.Equal(t, "主持人", *got.CallerDisplayName())
			assert.Equal(t, rec.Extras(), got.Extras())
			assert.Equal(t, telecom.ConnectTimeNotSpecified, got.ConnectTimeMillis())

			require.NoError(t, s.Delete(id))
			_, err = s.Get(id)
			assert.True(t, errors.Is(err, ErrNotFound))
		})
	}
}

func TestStore_BatchAndScan(t *testing.T) {
	s := openStore(t, parcel.UTF8)
	recs := telecom.NewConferenceArray(4)
	recs[0] = conference(telecom.StateActive, "a")
	recs[1] = conference(telecom.StateHolding, "b")
	recs[3] = conference(telecom.StateDialing, "d")

	require.NoError(t, s.HandleBatch(context.Background(), recs))

	seen := map[string]int32{}
	err := s.Scan(func(id ksuid.KSUID, rec *telecom.ParcelableConference) error {
		seen[rec.ConnectionIds()[0]] = rec.State()
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]int32{
		"a": telecom.StateActive,
		"b": telecom.StateHolding,
		"d": telecom.StateDialing,
	}, seen)

	stop := errors.New("stop")
	n := 0
	err = s.Scan(func(ksuid.KSUID, *telecom.ParcelableConference) error {
		n++
		return stop
	})
	assert.Equal(t, stop, err)
	assert.Equal(t, 1, n)
}

func TestStore_BatchIsAtomic(t *testing.T) {
	s := openStore(t, parcel.UTF8)
	recs := []*telecom.ParcelableConference{
		conference(telecom.StateActive, "ok"),
		telecom.NewParcelableConference(telecom.ConferenceParams{Extras: parcel.Bundle{"ch": make(chan int)}}),
	}
	_, err := s.PutBatch(recs)
	assert.Error(t, err)

	n := 0
	require.NoError(t, s.Scan(func(ksuid.KSUID, *telecom.ParcelableConference) error {
		n++
		return nil
	}))
	assert.Equal(t, 0, n)
}
