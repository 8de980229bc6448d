package vectorstore

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"

	"github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"

	"github.com/hyperjump/regvec/internal/config"
	"github.com/hyperjump/regvec/internal/models"
)

// QdrantStore implements Store over the Qdrant gRPC API.
type QdrantStore struct {
	conn        *grpc.ClientConn
	collections qdrant.CollectionsClient
	points      qdrant.PointsClient
	logger      *zap.Logger
}

// NewQdrantStore creates a client for the Qdrant instance described by cfg.
// The connection is established lazily on the first call.
func NewQdrantStore(cfg config.QdrantConfig, opts ...Option) (*QdrantStore, error) {
	o := buildOptions(opts)

	creds := insecure.NewCredentials()
	if cfg.UseTLS {
		creds = credentials.NewTLS(&tls.Config{MinVersion: tls.VersionTLS12})
	}
	dialOpts := []grpc.DialOption{grpc.WithTransportCredentials(creds)}
	if cfg.APIKey != "" {
		dialOpts = append(dialOpts, grpc.WithUnaryInterceptor(apiKeyInterceptor(cfg.APIKey)))
	}

	conn, err := grpc.NewClient(cfg.Addr(), dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("could not connect to Qdrant at %s: %w", cfg.Addr(), err)
	}
	o.logger.Debug("qdrant client created", zap.String("addr", cfg.Addr()), zap.Bool("tls", cfg.UseTLS))
	return newQdrantStoreFromConn(conn, o.logger), nil
}

func newQdrantStoreFromConn(conn *grpc.ClientConn, logger *zap.Logger) *QdrantStore {
	return &QdrantStore{
		conn:        conn,
		collections: qdrant.NewCollectionsClient(conn),
		points:      qdrant.NewPointsClient(conn),
		logger:      logger,
	}
}

// apiKeyInterceptor attaches the Qdrant api-key header to every unary call.
func apiKeyInterceptor(key string) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		ctx = metadata.AppendToOutgoingContext(ctx, "api-key", key)
		return invoker(ctx, method, req, reply, cc, opts...)
	}
}

func (q *QdrantStore) ListCollections(ctx context.Context) ([]string, error) {
	resp, err := q.collections.List(ctx, &qdrant.ListCollectionsRequest{})
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	names := make([]string, 0, len(resp.GetCollections()))
	for _, c := range resp.GetCollections() {
		names = append(names, c.GetName())
	}
	return names, nil
}

func (q *QdrantStore) CollectionExists(ctx context.Context, name string) (bool, error) {
	resp, err := q.collections.CollectionExists(ctx, &qdrant.CollectionExistsRequest{CollectionName: name})
	if err != nil {
		return false, fmt.Errorf("collection exists %s: %w", name, err)
	}
	return resp.GetResult().GetExists(), nil
}

func (q *QdrantStore) CreateCollection(ctx context.Context, name string, dimensions int, distance Distance) error {
	if distance != Cosine {
		return fmt.Errorf("create collection %s: unsupported distance %q", name, distance)
	}
	if dimensions <= 0 {
		return fmt.Errorf("create collection %s: dimensions must be positive", name)
	}
	_, err := q.collections.Create(ctx, &qdrant.CreateCollection{
		CollectionName: name,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(dimensions),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("create collection %s: %w", name, mapStatus(err))
	}
	return nil
}

func (q *QdrantStore) DeleteCollection(ctx context.Context, name string) error {
	if _, err := q.collections.Delete(ctx, &qdrant.DeleteCollection{CollectionName: name}); err != nil {
		return fmt.Errorf("delete collection %s: %w", name, err)
	}
	return nil
}

// Upsert sends all records in a single request and waits until they are applied.
func (q *QdrantStore) Upsert(ctx context.Context, name string, records []models.ChunkRecord) error {
	if len(records) == 0 {
		return nil
	}
	points := make([]*qdrant.PointStruct, 0, len(records))
	for _, rec := range records {
		if rec.ID < 0 {
			return fmt.Errorf("upsert %s: negative point id %d", name, rec.ID)
		}
		payload := make(map[string]*qdrant.Value, len(rec.Payload)+1)
		for k, v := range payloadOf(rec) {
			payload[k] = &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: v}}
		}
		points = append(points, &qdrant.PointStruct{
			Id:      &qdrant.PointId{PointIdOptions: &qdrant.PointId_Num{Num: uint64(rec.ID)}},
			Vectors: &qdrant.Vectors{VectorsOptions: &qdrant.Vectors_Vector{Vector: &qdrant.Vector{Data: rec.Vector}}},
			Payload: payload,
		})
	}

	_, err := q.points.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: name,
		Points:         points,
		Wait:           proto.Bool(true),
	})
	if err != nil {
		return fmt.Errorf("failed to upsert points to %s: %w", name, mapStatus(err))
	}
	return nil
}

func (q *QdrantStore) Search(ctx context.Context, name string, vector []float32, limit int) ([]models.Hit, error) {
	if limit <= 0 {
		return nil, nil
	}
	resp, err := q.points.Search(ctx, &qdrant.SearchPoints{
		CollectionName: name,
		Vector:         vector,
		Limit:          uint64(limit),
		WithPayload:    &qdrant.WithPayloadSelector{SelectorOptions: &qdrant.WithPayloadSelector_Enable{Enable: true}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search %s: %w", name, mapStatus(err))
	}

	hits := make([]models.Hit, 0, len(resp.GetResult()))
	for _, sp := range resp.GetResult() {
		payload := make(map[string]string, len(sp.GetPayload()))
		for k, v := range sp.GetPayload() {
			payload[k] = v.GetStringValue()
		}
		hits = append(hits, models.Hit{
			ID:      int(sp.GetId().GetNum()),
			Score:   float64(sp.GetScore()),
			Text:    payload[PayloadText],
			Payload: payload,
		})
	}
	return hits, nil
}

func (q *QdrantStore) Count(ctx context.Context, name string) (int64, error) {
	resp, err := q.points.Count(ctx, &qdrant.CountPoints{
		CollectionName: name,
		Exact:          proto.Bool(true),
	})
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", name, mapStatus(err))
	}
	return int64(resp.GetResult().GetCount()), nil
}

// Close closes the gRPC connection.
func (q *QdrantStore) Close() error {
	return q.conn.Close()
}

// mapStatus attaches the package sentinel errors to well-known gRPC status codes
// while keeping the gRPC status error in the chain.
func mapStatus(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	switch st.Code() {
	case codes.NotFound:
		return errors.Join(ErrCollectionNotFound, err)
	case codes.AlreadyExists:
		return errors.Join(ErrCollectionExists, err)
	default:
		return err
	}
}
