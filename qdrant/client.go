// Package qdrant provides a gRPC client for a Qdrant vector database. It reads a
// whole collection as an analysis input by scrolling through it page by page,
// and writes embedded documents into a collection for later analysis.
package qdrant

import (
	"context"
	"fmt"

	"github.com/alDuncanson/latentscope/vectorset"
	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// DefaultTextField is the payload key holding a point's source text.
const DefaultTextField = "text"

// scroller is the subset of pb.PointsClient needed to read a collection.
type scroller interface {
	Scroll(ctx context.Context, in *pb.ScrollPoints, opts ...grpc.CallOption) (*pb.ScrollResponse, error)
}

// Client wraps gRPC connections to a Qdrant vector database instance.
type Client struct {
	connection        *grpc.ClientConn
	pointsClient      pb.PointsClient
	collectionsClient pb.CollectionsClient
	reader            scroller
	collectionName    string
	options           Options
}

// Options tunes how a collection is read.
type Options struct {
	// PageSize is the number of points requested per scroll call.
	PageSize int

	// Limit caps the total points read. Zero reads the whole collection.
	Limit int

	// TextField is the payload key used as document text.
	TextField string

	// VectorName selects a named vector. Empty reads the default vector.
	VectorName string
}

func (o Options) withDefaults() Options {
	if o.PageSize <= 0 {
		o.PageSize = 256
	}
	if o.TextField == "" {
		o.TextField = DefaultTextField
	}
	return o
}

// Point is a single vector embedding with its associated text and metadata.
type Point struct {
	ID       string
	Text     string
	Metadata map[string]any
	Vector   []float32
}

// NewClient creates a new Qdrant client connected to the specified address.
// The connection is established lazily by gRPC on first use.
func NewClient(address, collectionName string, options Options) (*Client, error) {
	connection, err := grpc.NewClient(address, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("connect to qdrant: %w", err)
	}

	pointsClient := pb.NewPointsClient(connection)
	return &Client{
		connection:        connection,
		pointsClient:      pointsClient,
		collectionsClient: pb.NewCollectionsClient(connection),
		reader:            pointsClient,
		collectionName:    collectionName,
		options:           options.withDefaults(),
	}, nil
}

// LoadCollection scrolls through the collection and returns its points as an
// analysis collection in scroll order. Points without a vector are skipped.
func (client *Client) LoadCollection(ctx context.Context, embeddingModel string) (vectorset.Collection, error) {
	points, err := client.GetAll(ctx)
	if err != nil {
		return vectorset.Collection{}, err
	}

	documents := make([]vectorset.Document, 0, len(points))
	vectors := make([][]float32, 0, len(points))
	for _, point := range points {
		if len(point.Vector) == 0 {
			continue
		}
		documents = append(documents, vectorset.Document{ID: point.ID, Text: point.Text, Metadata: point.Metadata})
		vectors = append(vectors, point.Vector)
	}

	set, err := vectorset.FromFloat32(vectors)
	if err != nil {
		return vectorset.Collection{}, fmt.Errorf("collection %s: %w", client.collectionName, err)
	}
	return vectorset.Collection{Vectors: set, Documents: documents, EmbeddingModel: embeddingModel}, nil
}

// GetAll retrieves every point from the collection, following scroll offsets
// until the server reports no further page or Options.Limit is reached.
func (client *Client) GetAll(ctx context.Context) ([]Point, error) {
	var points []Point
	var offset *pb.PointId

	for {
		pageSize := client.options.PageSize
		if client.options.Limit > 0 {
			remaining := client.options.Limit - len(points)
			if remaining <= 0 {
				break
			}
			if remaining < pageSize {
				pageSize = remaining
			}
		}

		scrollResponse, err := client.reader.Scroll(ctx, &pb.ScrollPoints{
			CollectionName: client.collectionName,
			Offset:         offset,
			WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
			WithVectors:    &pb.WithVectorsSelector{SelectorOptions: &pb.WithVectorsSelector_Enable{Enable: true}},
			Limit:          pb.PtrOf(uint32(pageSize)),
		})
		if err != nil {
			return nil, fmt.Errorf("scroll points: %w", err)
		}

		for _, retrievedPoint := range scrollResponse.GetResult() {
			points = append(points, convertPoint(retrievedPoint, client.options))
		}

		offset = scrollResponse.GetNextPageOffset()
		if offset == nil || len(scrollResponse.GetResult()) == 0 {
			break
		}
	}

	return points, nil
}

// EnsureCollection creates the collection with cosine distance if it does not exist.
func (client *Client) EnsureCollection(ctx context.Context, vectorSize uint64) error {
	_, err := client.collectionsClient.Get(ctx, &pb.GetCollectionInfoRequest{
		CollectionName: client.collectionName,
	})
	if err == nil {
		return nil
	}

	_, err = client.collectionsClient.Create(ctx, &pb.CreateCollection{
		CollectionName: client.collectionName,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     vectorSize,
					Distance: pb.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create collection: %w", err)
	}

	return nil
}

// Upsert writes points in one request. Point IDs must be UUIDs.
func (client *Client) Upsert(ctx context.Context, points []Point) error {
	if len(points) == 0 {
		return nil
	}

	pointStructs := make([]*pb.PointStruct, len(points))
	for pointIndex, point := range points {
		pointStructs[pointIndex] = buildPointStruct(point, client.options.TextField)
	}

	_, err := client.pointsClient.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: client.collectionName,
		Points:         pointStructs,
	})
	if err != nil {
		return fmt.Errorf("upsert points: %w", err)
	}
	return nil
}

// Close terminates the gRPC connection to the Qdrant server.
func (client *Client) Close() error {
	return client.connection.Close()
}
