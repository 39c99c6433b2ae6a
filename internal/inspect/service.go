// Package inspect exposes live actor state over gRPC for debugging tools.
//
// Messages are google.protobuf.Struct values, so the service needs no
// generated code. The ServiceDesc in grpc.go is written by hand in the shape
// protoc-gen-go-grpc emits.
package inspect

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/cory-johannsen/scarlet/internal/game/actor"
	"github.com/cory-johannsen/scarlet/internal/game/condition"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "scarlet.inspect.v1.Inspector"

const (
	getActorMethod    = "/" + ServiceName + "/GetActor"
	listActorsMethod  = "/" + ServiceName + "/ListActors"
	applyEffectMethod = "/" + ServiceName + "/ApplyEffect"
)

// InspectorServer is the server API for the Inspector service.
type InspectorServer interface {
	// GetActor takes {"actor_id": string} and returns the actor's full state.
	GetActor(context.Context, *structpb.Struct) (*structpb.Struct, error)
	// ListActors returns {"frames": n, "actors": [summary...]}.
	ListActors(context.Context, *structpb.Struct) (*structpb.Struct, error)
	// ApplyEffect takes {"actor_id", "effect_id"} and applies the catalog
	// effect, returning {"outcome": string}.
	ApplyEffect(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// World is the subset of actor.World the service reads.
type World interface {
	Update(id string, fn func(a *actor.Actor)) error
	Snapshots() []actor.Snapshot
	Frames() uint64
}

// Server implements InspectorServer over a World.
type Server struct {
	world  World
	logger *zap.Logger
}

// NewServer creates a Server.
//
// Precondition: world must be non-nil.
func NewServer(world World, logger *zap.Logger) *Server {
	if world == nil {
		panic("inspect.NewServer: world must not be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{world: world, logger: logger}
}

// GetActor implements InspectorServer.
func (s *Server) GetActor(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := requireString(req, "actor_id")
	if err != nil {
		return nil, err
	}
	var fields map[string]any
	err = s.world.Update(id, func(a *actor.Actor) {
		fields = describe(a)
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return newStruct(fields)
}

// ListActors implements InspectorServer.
func (s *Server) ListActors(_ context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	snaps := s.world.Snapshots()
	actors := make([]any, 0, len(snaps))
	for _, sn := range snaps {
		actors = append(actors, map[string]any{
			"id":       sn.ID,
			"name":     sn.Name,
			"template": sn.TemplateID,
			"faction":  sn.Faction,
			"category": sn.Category,
			"health":   sn.Health,
			"effects":  len(sn.Effects),
		})
	}
	return newStruct(map[string]any{
		"frames": s.world.Frames(),
		"actors": actors,
	})
}

// ApplyEffect implements InspectorServer.
func (s *Server) ApplyEffect(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := requireString(req, "actor_id")
	if err != nil {
		return nil, err
	}
	effectID, err := requireString(req, "effect_id")
	if err != nil {
		return nil, err
	}
	var (
		outcome  condition.Outcome
		applyErr error
	)
	err = s.world.Update(id, func(a *actor.Actor) {
		outcome, applyErr = a.ApplyNamed(effectID, "")
	})
	if err == nil {
		err = applyErr
	}
	if err != nil {
		return nil, toStatus(err)
	}
	s.logger.Info("effect applied via inspect",
		zap.String("actor_id", id),
		zap.String("effect_id", effectID),
		zap.String("outcome", outcome.String()),
	)
	return newStruct(map[string]any{"outcome": outcome.String()})
}

func describe(a *actor.Actor) map[string]any {
	values := make(map[string]any)
	for _, st := range a.Attributes().Stats() {
		values[string(st.Kind)] = a.GetValue(st.Kind)
	}
	effects := make([]any, 0)
	for _, e := range a.Conditions().Active() {
		effects = append(effects, map[string]any{
			"id":        e.ID,
			"name":      e.Name,
			"category":  string(e.Category),
			"stacks":    e.Stacks,
			"remaining": e.Remaining.Seconds(),
			"harmful":   e.Harmful,
		})
	}
	return map[string]any{
		"id":       a.ID(),
		"name":     a.Name(),
		"template": a.TemplateID(),
		"faction":  a.Faction().String(),
		"category": a.Category().String(),
		"dead":     a.Dead(),
		"pools": map[string]any{
			"health":      pool(a.Health().Current(), a.Health().Max()),
			"scarlet":     pool(a.Scarlet().Current(), a.Scarlet().Max()),
			"block_power": pool(a.BlockPower().Current(), a.BlockPower().Max()),
		},
		"values":  values,
		"effects": effects,
	}
}

func pool(current, max float64) map[string]any {
	return map[string]any{"current": current, "max": max}
}

func requireString(req *structpb.Struct, key string) (string, error) {
	v, ok := req.GetFields()[key]
	if !ok || v.GetStringValue() == "" {
		return "", status.Errorf(codes.InvalidArgument, "%s is required", key)
	}
	return v.GetStringValue(), nil
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, actor.ErrActorNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, condition.ErrUnknownEffect):
		return status.Error(codes.NotFound, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

func newStruct(fields map[string]any) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, status.Error(codes.Internal, fmt.Sprintf("encoding response: %v", err))
	}
	return out, nil
}
