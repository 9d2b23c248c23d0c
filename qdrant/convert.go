package qdrant

import (
	"fmt"
	"strconv"

	pb "github.com/qdrant/go-client/qdrant"
)

func convertPoint(retrievedPoint *pb.RetrievedPoint, options Options) Point {
	point := Point{ID: pointIDString(retrievedPoint.GetId())}

	for key, value := range retrievedPoint.GetPayload() {
		if key == options.TextField {
			point.Text = value.GetStringValue()
			continue
		}
		if point.Metadata == nil {
			point.Metadata = make(map[string]any)
		}
		point.Metadata[key] = valueToAny(value)
	}

	vectors := retrievedPoint.GetVectors()
	if options.VectorName != "" {
		point.Vector = vectors.GetVectors().GetVectors()[options.VectorName].GetData()
	} else {
		point.Vector = vectors.GetVector().GetData()
	}
	return point
}

func pointIDString(id *pb.PointId) string {
	switch options := id.GetPointIdOptions().(type) {
	case *pb.PointId_Uuid:
		return options.Uuid
	case *pb.PointId_Num:
		return strconv.FormatUint(options.Num, 10)
	default:
		return ""
	}
}

// valueToAny converts a payload value into the plain Go value JSON decoding would produce.
func valueToAny(value *pb.Value) any {
	switch kind := value.GetKind().(type) {
	case *pb.Value_StringValue:
		return kind.StringValue
	case *pb.Value_IntegerValue:
		return kind.IntegerValue
	case *pb.Value_DoubleValue:
		return kind.DoubleValue
	case *pb.Value_BoolValue:
		return kind.BoolValue
	case *pb.Value_ListValue:
		values := kind.ListValue.GetValues()
		list := make([]any, len(values))
		for i, element := range values {
			list[i] = valueToAny(element)
		}
		return list
	case *pb.Value_StructValue:
		fields := kind.StructValue.GetFields()
		object := make(map[string]any, len(fields))
		for key, field := range fields {
			object[key] = valueToAny(field)
		}
		return object
	default:
		return nil
	}
}

func anyToValue(value any) *pb.Value {
	switch typed := value.(type) {
	case nil:
		return &pb.Value{Kind: &pb.Value_NullValue{}}
	case string:
		return &pb.Value{Kind: &pb.Value_StringValue{StringValue: typed}}
	case bool:
		return &pb.Value{Kind: &pb.Value_BoolValue{BoolValue: typed}}
	case int:
		return &pb.Value{Kind: &pb.Value_IntegerValue{IntegerValue: int64(typed)}}
	case int64:
		return &pb.Value{Kind: &pb.Value_IntegerValue{IntegerValue: typed}}
	case float64:
		return &pb.Value{Kind: &pb.Value_DoubleValue{DoubleValue: typed}}
	case []any:
		values := make([]*pb.Value, len(typed))
		for i, element := range typed {
			values[i] = anyToValue(element)
		}
		return &pb.Value{Kind: &pb.Value_ListValue{ListValue: &pb.ListValue{Values: values}}}
	case map[string]any:
		fields := make(map[string]*pb.Value, len(typed))
		for key, field := range typed {
			fields[key] = anyToValue(field)
		}
		return &pb.Value{Kind: &pb.Value_StructValue{StructValue: &pb.Struct{Fields: fields}}}
	default:
		return &pb.Value{Kind: &pb.Value_StringValue{StringValue: fmt.Sprint(typed)}}
	}
}

func buildPointStruct(point Point, textField string) *pb.PointStruct {
	payload := make(map[string]*pb.Value, len(point.Metadata)+1)
	for key, value := range point.Metadata {
		payload[key] = anyToValue(value)
	}
	payload[textField] = anyToValue(point.Text)

	return &pb.PointStruct{
		Id: &pb.PointId{
			PointIdOptions: &pb.PointId_Uuid{Uuid: point.ID},
		},
		Vectors: &pb.Vectors{
			VectorsOptions: &pb.Vectors_Vector{
				Vector: &pb.Vector{Data: point.Vector},
			},
		},
		Payload: payload,
	}
}
