package ecotracker

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFetchFullVariant(t *testing.T) {
	assert := assert.New(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal("/v1/json", r.URL.Path)
		w.Write([]byte(`{"power":250.5,"powerPhase1":100,"powerPhase2":75.5,"powerPhase3":75,
			"powerAvg":240,"energyCounterIn":12345,"energyCounterOut":67}`))
	}))
	defer server.Close()

	reader, err := CreateHTTPDeviceReader(server.URL, VariantV1, 0, nil)
	assert.NoError(err)

	snapshot, err := reader.Fetch(context.Background())
	assert.NoError(err)
	assert.Equal(7, snapshot.Len())

	power, ok := snapshot.Get(FieldPower)
	assert.True(ok)
	assert.Equal(250.5, power)

	in, ok := snapshot.Get(FieldEnergyCounterIn)
	assert.True(ok)
	assert.Equal(float64(12345), in)
}

func TestFetchRootVariant(t *testing.T) {
	assert := assert.New(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal("/", r.URL.Path)
		w.Write([]byte(`{"power":250,"energyCounterIn":12345,"energyCounterOut":67}`))
	}))
	defer server.Close()

	reader, err := CreateHTTPDeviceReader(server.URL, VariantRoot, 0, nil)
	assert.NoError(err)

	snapshot, err := reader.Fetch(context.Background())
	assert.NoError(err)
	assert.Equal(3, snapshot.Len())

	_, ok := snapshot.Get(FieldPowerAvg)
	assert.False(ok, "optional field absent")
}

func TestFetchKeepsExtraFields(t *testing.T) {
	assert := assert.New(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"power":1,"energyCounterIn":2,"energyCounterOut":3,"frequency":50.02}`))
	}))
	defer server.Close()

	reader, _ := CreateHTTPDeviceReader(server.URL, VariantRoot, 0, nil)
	snapshot, err := reader.Fetch(context.Background())
	assert.NoError(err)

	freq, ok := snapshot.Get("frequency")
	assert.True(ok, "unknown fields pass through")
	assert.Equal(50.02, freq)
}

func TestFetchMissingRequiredField(t *testing.T) {
	assert := assert.New(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"power":120}`))
	}))
	defer server.Close()

	reader, _ := CreateHTTPDeviceReader(server.URL, VariantRoot, 0, nil)
	snapshot, err := reader.Fetch(context.Background())
	assert.Nil(snapshot)
	assert.ErrorIs(err, ErrInvalidData)
}

func TestFetchHTTPError(t *testing.T) {
	assert := assert.New(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	reader, _ := CreateHTTPDeviceReader(server.URL, VariantV1, 0, nil)
	snapshot, err := reader.Fetch(context.Background())
	assert.Nil(snapshot)
	assert.ErrorIs(err, ErrCannotConnect)
}

func TestFetchMalformedPayload(t *testing.T) {
	assert := assert.New(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>not json</html>`))
	}))
	defer server.Close()

	reader, _ := CreateHTTPDeviceReader(server.URL, VariantV1, 0, nil)
	_, err := reader.Fetch(context.Background())
	assert.ErrorIs(err, ErrCannotConnect)
}

func TestFetchConnectionRefused(t *testing.T) {
	assert := assert.New(t)

	// reserved port with nothing listening
	reader, _ := CreateHTTPDeviceReader("127.0.0.1:1", VariantV1, 1*time.Second, nil)
	_, err := reader.Fetch(context.Background())
	assert.ErrorIs(err, ErrCannotConnect)
}

func TestProbeClassification(t *testing.T) {
	assert := assert.New(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"foo":1}`))
	}))
	defer server.Close()

	reader, _ := CreateHTTPDeviceReader(server.URL, VariantRoot, 0, nil)
	err := reader.Probe(context.Background())
	assert.ErrorIs(err, ErrInvalidData)

	unreachable, _ := CreateHTTPDeviceReader("127.0.0.1:1", VariantRoot, 1*time.Second, nil)
	err = unreachable.Probe(context.Background())
	assert.ErrorIs(err, ErrCannotConnect)
}

func TestSnapshotValuesCopy(t *testing.T) {
	assert := assert.New(t)

	snapshot := TestSnapshot(map[string]float64{FieldPower: 100})
	values := snapshot.Values()
	values[FieldPower] = 999

	power, _ := snapshot.Get(FieldPower)
	assert.Equal(float64(100), power, "snapshot is immutable")
}

func TestParseEndpointVariant(t *testing.T) {
	assert := assert.New(t)

	v, err := ParseEndpointVariant("")
	assert.NoError(err)
	assert.Equal(VariantV1, v)

	v, err = ParseEndpointVariant("root")
	assert.NoError(err)
	assert.Equal(VariantRoot, v)

	_, err = ParseEndpointVariant("v2")
	assert.Error(err)
}
