package qdrant

import (
	"context"
	"errors"
	"fmt"
	"testing"

	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
)

// pagedScroller serves a fixed list of points in pages keyed by numeric offset.
type pagedScroller struct {
	points   []*pb.RetrievedPoint
	requests []*pb.ScrollPoints
	err      error
}

func (s *pagedScroller) Scroll(_ context.Context, in *pb.ScrollPoints, _ ...grpc.CallOption) (*pb.ScrollResponse, error) {
	s.requests = append(s.requests, in)
	if s.err != nil {
		return nil, s.err
	}

	start := 0
	if in.GetOffset() != nil {
		start = int(in.GetOffset().GetNum())
	}
	end := start + int(in.GetLimit())
	if end > len(s.points) {
		end = len(s.points)
	}

	response := &pb.ScrollResponse{Result: s.points[start:end]}
	if end < len(s.points) {
		response.NextPageOffset = &pb.PointId{PointIdOptions: &pb.PointId_Num{Num: uint64(end)}}
	}
	return response, nil
}

func retrievedPoint(id int, text string, vector []float32) *pb.RetrievedPoint {
	return &pb.RetrievedPoint{
		Id: &pb.PointId{PointIdOptions: &pb.PointId_Num{Num: uint64(id)}},
		Payload: map[string]*pb.Value{
			"text":  {Kind: &pb.Value_StringValue{StringValue: text}},
			"index": {Kind: &pb.Value_IntegerValue{IntegerValue: int64(id)}},
		},
		Vectors: &pb.VectorsOutput{
			VectorsOptions: &pb.VectorsOutput_Vector{Vector: &pb.VectorOutput{Data: vector}},
		},
	}
}

func testClient(scroller scroller, options Options) *Client {
	return &Client{reader: scroller, collectionName: "embeddings", options: options.withDefaults()}
}

func TestGetAll_FollowsPages(t *testing.T) {
	scroller := &pagedScroller{}
	for i := 0; i < 5; i++ {
		scroller.points = append(scroller.points, retrievedPoint(i, fmt.Sprintf("doc %d", i), []float32{float32(i), 1}))
	}

	points, err := testClient(scroller, Options{PageSize: 2}).GetAll(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(points) != 5 {
		t.Fatalf("expected 5 points, got %d", len(points))
	}
	if len(scroller.requests) != 3 {
		t.Errorf("expected 3 scroll requests, got %d", len(scroller.requests))
	}
	for i, point := range points {
		if point.ID != fmt.Sprint(i) || point.Text != fmt.Sprintf("doc %d", i) {
			t.Errorf("point %d out of order: %+v", i, point)
		}
	}
	if points[3].Metadata["index"] != int64(3) {
		t.Errorf("expected payload carried as metadata, got %v", points[3].Metadata)
	}
}

func TestGetAll_RespectsLimit(t *testing.T) {
	scroller := &pagedScroller{}
	for i := 0; i < 10; i++ {
		scroller.points = append(scroller.points, retrievedPoint(i, "x", []float32{1}))
	}

	points, err := testClient(scroller, Options{PageSize: 4, Limit: 6}).GetAll(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(points) != 6 {
		t.Errorf("expected 6 points, got %d", len(points))
	}
	if last := scroller.requests[len(scroller.requests)-1]; last.GetLimit() != 2 {
		t.Errorf("expected final page trimmed to 2, got %d", last.GetLimit())
	}
}

func TestGetAll_Error(t *testing.T) {
	scroller := &pagedScroller{err: errors.New("unavailable")}
	if _, err := testClient(scroller, Options{}).GetAll(context.Background()); err == nil {
		t.Error("expected scroll error")
	}
}

func TestLoadCollection(t *testing.T) {
	scroller := &pagedScroller{points: []*pb.RetrievedPoint{
		retrievedPoint(0, "alpha", []float32{1, 0}),
		retrievedPoint(1, "no vector", nil),
		retrievedPoint(2, "beta", []float32{0, 1}),
	}}

	collection, err := testClient(scroller, Options{}).LoadCollection(context.Background(), "nomic-embed-text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if collection.Vectors.Len() != 2 || len(collection.Documents) != 2 {
		t.Fatalf("expected vectorless point skipped, got %d", collection.Vectors.Len())
	}
	if collection.Documents[1].Text != "beta" || collection.Vectors.At(1)[1] != 1 {
		t.Errorf("documents and vectors misaligned: %+v", collection.Documents)
	}
	if collection.EmbeddingModel != "nomic-embed-text" {
		t.Errorf("unexpected model %q", collection.EmbeddingModel)
	}
}

func TestLoadCollection_MixedDimensions(t *testing.T) {
	scroller := &pagedScroller{points: []*pb.RetrievedPoint{
		retrievedPoint(0, "a", []float32{1, 0}),
		retrievedPoint(1, "b", []float32{1, 0, 0}),
	}}
	if _, err := testClient(scroller, Options{}).LoadCollection(context.Background(), ""); err == nil {
		t.Error("expected dimension mismatch error")
	}
}

func TestPointIDString(t *testing.T) {
	if got := pointIDString(&pb.PointId{PointIdOptions: &pb.PointId_Uuid{Uuid: "abc"}}); got != "abc" {
		t.Errorf("unexpected uuid id %q", got)
	}
	if got := pointIDString(&pb.PointId{PointIdOptions: &pb.PointId_Num{Num: 42}}); got != "42" {
		t.Errorf("unexpected numeric id %q", got)
	}
	if got := pointIDString(nil); got != "" {
		t.Errorf("expected empty id for nil, got %q", got)
	}
}

func TestValueConversion(t *testing.T) {
	original := map[string]any{
		"name":   "doc",
		"score":  0.5,
		"count":  int64(3),
		"tags":   []any{"a", "b"},
		"nested": map[string]any{"ok": true},
		"empty":  nil,
	}

	converted := valueToAny(anyToValue(original)).(map[string]any)
	if converted["name"] != "doc" || converted["score"] != 0.5 || converted["count"] != int64(3) {
		t.Errorf("scalar values not preserved: %v", converted)
	}
	if tags := converted["tags"].([]any); len(tags) != 2 || tags[1] != "b" {
		t.Errorf("list not preserved: %v", converted["tags"])
	}
	if nested := converted["nested"].(map[string]any); nested["ok"] != true {
		t.Errorf("struct not preserved: %v", converted["nested"])
	}
	if converted["empty"] != nil {
		t.Errorf("null not preserved: %v", converted["empty"])
	}
}

func TestBuildPointStruct(t *testing.T) {
	point := Point{ID: "4f7e1b9a-0000-4000-8000-000000000001", Text: "hello", Metadata: map[string]any{"lang": "en"}, Vector: []float32{1, 2}}
	pointStruct := buildPointStruct(point, DefaultTextField)

	if pointStruct.GetId().GetUuid() != point.ID {
		t.Errorf("unexpected id %v", pointStruct.GetId())
	}
	if pointStruct.GetPayload()["text"].GetStringValue() != "hello" {
		t.Error("text payload missing")
	}
	if pointStruct.GetPayload()["lang"].GetStringValue() != "en" {
		t.Error("metadata payload missing")
	}
	if len(pointStruct.GetVectors().GetVector().GetData()) != 2 {
		t.Error("vector missing")
	}
}
