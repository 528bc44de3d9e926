package snapshot

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/regime-world/internal/engine"
	"github.com/talgya/regime-world/internal/entropy"
	"github.com/talgya/regime-world/internal/rules"
	"github.com/talgya/regime-world/internal/world"
)

func steppedWorld(t *testing.T) *world.World {
	t.Helper()
	rs := rules.Default()
	src := entropy.New(31)
	w := engine.CreateWorld(5, rs, src)
	_, err := world.SeatPlayer(w, world.SeatWealthiest, src)
	require.NoError(t, err)
	for range 8 {
		engine.Step(w, rs, src, nil)
	}
	return w
}

func TestEncodeDecode_Lossless(t *testing.T) {
	w := steppedWorld(t)
	b, err := Encode(w)
	require.NoError(t, err)

	back, err := Decode(b)
	require.NoError(t, err)
	assert.Equal(t, w, back)
}

func TestDecodedWorldKeepsStepping(t *testing.T) {
	rs := rules.Default()
	w := steppedWorld(t)
	b, err := Encode(w)
	require.NoError(t, err)
	back, err := Decode(b)
	require.NoError(t, err)

	engine.Step(w, rs, entropy.New(5), nil)
	engine.Step(back, rs, entropy.New(5), nil)

	x, err := json.Marshal(w)
	require.NoError(t, err)
	y, err := json.Marshal(back)
	require.NoError(t, err)
	assert.JSONEq(t, string(x), string(y))
}

func TestFile_RoundTripAndHeader(t *testing.T) {
	w := steppedWorld(t)
	path := filepath.Join(t.TempDir(), "nested", "world.snap")
	require.NoError(t, WriteFile(path, w))

	h, err := ReadHeader(path)
	require.NoError(t, err)
	assert.Equal(t, Header{Version: Version, WorldID: w.ID, Step: w.Step, Regimes: len(w.Regimes), Done: w.Done}, h)

	back, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, w, back)
}

func TestRead_RejectsUnknownVersion(t *testing.T) {
	var buf bytes.Buffer
	enc, err := zstd.NewWriter(&buf)
	require.NoError(t, err)
	_, err = enc.Write([]byte(`{"version":99,"world_id":"x","step":0,"regimes":0}` + "\n{}\n"))
	require.NoError(t, err)
	require.NoError(t, enc.Close())

	_, err = Decode(buf.Bytes())
	assert.ErrorIs(t, err, ErrVersion)
}

func TestDecode_Garbage(t *testing.T) {
	_, err := Decode([]byte("not a snapshot"))
	assert.Error(t, err)
}
