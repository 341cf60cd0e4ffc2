package cas_bus_test

import (
	"strings"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"github.com/rskv-p/cas/config"
	"github.com/rskv-p/cas/pkg/x_cas"
	"github.com/rskv-p/cas/servs/s_cas/cas_bus"
	"github.com/rskv-p/cas/servs/s_cas/cas_serv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func start(t *testing.T, opts ...x_cas.Option) (*cas_bus.Service, *cas_bus.Client) {
	t.Helper()
	store := cas_serv.NewTyped[int32](opts...)
	_, err := store.Import(strings.NewReader("/a/b;1;1\n/a/c;2;2\n/x/c;3;3\n"), ';', true)
	require.NoError(t, err)

	cfg := config.Default().NATS
	cfg.Embedded = true
	cfg.Port = -1
	cfg.Prefix = "test"
	svc := cas_bus.New(store, cfg, zerolog.Nop())
	require.NoError(t, svc.Start())
	t.Cleanup(func() { _ = svc.Stop() })

	cli, err := cas_bus.Dial(svc.ClientURL(), "test", 2*time.Second)
	require.NoError(t, err)
	t.Cleanup(cli.Close)
	return svc, cli
}

// TestBus_Query tests request/reply queries.
func TestBus_Query(t *testing.T) {
	_, cli := start(t)

	res, err := cli.Query(cas_serv.QueryRequest{Path: "/a//c"})
	require.NoError(t, err)
	require.Len(t, res.Matches, 1)
	assert.Equal(t, uint64(2), res.Matches[0].DID)

	res, err = cli.Query(cas_serv.QueryRequest{Path: "//c", Low: "3"})
	require.NoError(t, err)
	require.Len(t, res.Matches, 1)
	assert.Equal(t, uint64(3), res.Matches[0].DID)

	_, err = cli.Query(cas_serv.QueryRequest{Path: "/", Low: "x"})
	assert.ErrorContains(t, err, "bad value")
}

// TestBus_Update tests insert, delete and merge over the bus.
func TestBus_Update(t *testing.T) {
	_, cli := start(t, x_cas.WithTarget(x_cas.MainAuxiliary))

	ins, err := cli.Insert(cas_serv.Record{Path: "/q", Value: 1 << 20, DID: 4})
	require.NoError(t, err)
	assert.True(t, ins.Stats.Auxiliary)

	info, err := cli.Info()
	require.NoError(t, err)
	assert.Equal(t, 4, info.Keys)
	assert.Equal(t, 1, info.AuxKeys)

	info, err = cli.Merge()
	require.NoError(t, err)
	assert.Zero(t, info.AuxKeys)

	del, err := cli.Delete(cas_serv.Record{Path: "/a/b", Value: 1, DID: 1})
	require.NoError(t, err)
	assert.True(t, del.Deleted)

	st, err := cli.Stats()
	require.NoError(t, err)
	assert.Equal(t, 3, st.Keys)
}

// TestBus_LooseRequest tests that numbers may be sent as strings and
// unknown fields are rejected.
func TestBus_LooseRequest(t *testing.T) {
	svc, _ := start(t)
	nc, err := nats.Connect(svc.ClientURL())
	require.NoError(t, err)
	defer nc.Close()

	msg, err := nc.Request("test.delete", []byte(`{"path":"/x/c","value":"3","did":"3"}`), 2*time.Second)
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":{"deleted":true}}`, string(msg.Data))

	msg, err = nc.Request("test.query", []byte(`{"path":"//","bogus":1}`), 2*time.Second)
	require.NoError(t, err)
	assert.Contains(t, string(msg.Data), "bogus")
}
