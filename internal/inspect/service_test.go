package inspect_test

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/cory-johannsen/scarlet/internal/game/actor"
	"github.com/cory-johannsen/scarlet/internal/game/attribute"
	"github.com/cory-johannsen/scarlet/internal/game/combat"
	"github.com/cory-johannsen/scarlet/internal/game/condition"
	"github.com/cory-johannsen/scarlet/internal/game/dice"
	"github.com/cory-johannsen/scarlet/internal/inspect"
)

func newWorld(t *testing.T) *actor.World {
	t.Helper()
	cat := condition.NewCatalog()
	require.NoError(t, cat.Register(&condition.Definition{
		ID:        "burning",
		Name:      "burning",
		Category:  string(condition.Burn),
		Harmful:   true,
		Stacking:  "stackable",
		MaxStacks: 3,
		Duration:  5,
	}))
	w := actor.NewWorld(zaptest.NewLogger(t))
	for _, id := range []string{"hero", "slime"} {
		w.Add(actor.New(actor.Options{
			ID:       id,
			Name:     id,
			Faction:  combat.FactionPlayer,
			Category: combat.CategoryPlayer,
			Catalog:  cat,
			Stats: []attribute.Stat{
				{Kind: attribute.Health, Base: 50},
				{Kind: attribute.Defense, Base: 4},
			},
			Dice: dice.Fixed{Float: 0.99},
		}))
	}
	return w
}

func dial(t *testing.T, w *actor.World) *inspect.InspectorClient {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	svc := inspect.NewGRPCService("", lis, inspect.NewServer(w, zaptest.NewLogger(t)), zaptest.NewLogger(t))
	go func() { _ = svc.Start() }()
	t.Cleanup(svc.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	resp, err := healthpb.NewHealthClient(conn).Check(context.Background(),
		&healthpb.HealthCheckRequest{Service: inspect.ServiceName})
	require.NoError(t, err)
	require.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())

	return inspect.NewInspectorClient(conn)
}

func request(t *testing.T, fields map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(fields)
	require.NoError(t, err)
	return s
}

func TestInspector_ListActors(t *testing.T) {
	w := newWorld(t)
	w.Tick(0.1)
	client := dial(t, w)

	out, err := client.ListActors(context.Background(), &structpb.Struct{})
	require.NoError(t, err)
	m := out.AsMap()
	assert.EqualValues(t, 1, m["frames"])
	actors := m["actors"].([]any)
	require.Len(t, actors, 2)
	assert.Equal(t, "hero", actors[0].(map[string]any)["id"])
	assert.EqualValues(t, 50, actors[0].(map[string]any)["health"])
}

func TestInspector_ApplyEffectThenGetActor(t *testing.T) {
	w := newWorld(t)
	client := dial(t, w)
	ctx := context.Background()

	out, err := client.ApplyEffect(ctx, request(t, map[string]any{"actor_id": "slime", "effect_id": "burning"}))
	require.NoError(t, err)
	assert.Equal(t, "applied", out.AsMap()["outcome"])

	out, err = client.ApplyEffect(ctx, request(t, map[string]any{"actor_id": "slime", "effect_id": "burning"}))
	require.NoError(t, err)
	assert.Equal(t, "stacked", out.AsMap()["outcome"])

	got, err := client.GetActor(ctx, request(t, map[string]any{"actor_id": "slime"}))
	require.NoError(t, err)
	m := got.AsMap()
	assert.Equal(t, "slime", m["id"])
	assert.Equal(t, false, m["dead"])
	assert.EqualValues(t, 4, m["values"].(map[string]any)["defense"])
	effects := m["effects"].([]any)
	require.Len(t, effects, 1)
	assert.EqualValues(t, 2, effects[0].(map[string]any)["stacks"])
	health := m["pools"].(map[string]any)["health"].(map[string]any)
	assert.EqualValues(t, 50, health["max"])
}

func TestInspector_Errors(t *testing.T) {
	client := dial(t, newWorld(t))
	ctx := context.Background()

	_, err := client.GetActor(ctx, &structpb.Struct{})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = client.GetActor(ctx, request(t, map[string]any{"actor_id": "ghost"}))
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = client.ApplyEffect(ctx, request(t, map[string]any{"actor_id": "hero", "effect_id": "frozen"}))
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = client.ApplyEffect(ctx, request(t, map[string]any{"actor_id": "hero"}))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestNewServer_PanicsOnNilWorld(t *testing.T) {
	assert.Panics(t, func() { inspect.NewServer(nil, nil) })
}
