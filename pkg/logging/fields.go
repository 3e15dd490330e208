package logging

import "time"

// Common field constructors.

func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value.String()}
}

func Error(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

// Domain field constructors.

func GraphID(id string) Field {
	return Field{Key: "graph_id", Value: id}
}

func NodeID(id string) Field {
	return Field{Key: "node_id", Value: id}
}

func DelegationID(id string) Field {
	return Field{Key: "delegation_id", Value: id}
}

func NodeCount(n int) Field {
	return Field{Key: "node_count", Value: n}
}
