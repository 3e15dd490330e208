package model

// Node property keys. These form the fixed wire vocabulary: serialized
// graphs, the external database backend and the in-memory backends all
// agree on these strings.
const (
	PropGraphID               = "GraphID"
	PropNodeID                = "NodeID"
	PropName                  = "Name"
	PropClass                 = "Class"
	PropType                  = "Type"
	PropModel                 = "Model"
	PropLayer                 = "Layer"
	PropTechnology            = "Technology"
	PropSite                  = "Site"
	PropLocation              = "Location"
	PropImageRef              = "ImageRef"
	PropMgmtIP                = "MgmtIp"
	PropAllocationConstraints = "AllocationConstraints"
	PropServiceEndpoint       = "ServiceEndpoint"
	PropDetails               = "Details"
	PropReservationInfo       = "ReservationInfo"
	PropNodeMap               = "NodeMap"
	PropStructuralInfo        = "StructuralInfo"
	PropStitchNode            = "StitchNode"
	PropERO                   = "ERO"
	PropPathInfo              = "PathInfo"
	PropControllerURL         = "ControllerURL"
	PropGateway               = "Gateway"
	PropMirrorPort            = "MirrorPort"
	PropMirrorVLAN            = "MirrorVlan"
	PropMirrorDirection       = "MirrorDirection"
	PropTags                  = "Tags"
	PropFlags                 = "Flags"
	PropMeasurementData       = "MeasurementData"
	PropBootScript            = "BootScript"
	PropCapacities            = "Capacities"
	PropCapacityHints         = "CapacityHints"
	PropLabels                = "Labels"
	PropCapacityDelegations   = "CapacityDelegations"
	PropLabelDelegations      = "LabelDelegations"
	PropCapacityAllocations   = "CapacityAllocations"
	PropLabelAllocations      = "LabelAllocations"
)

// protectedProps can never be unset once present. GraphID and Name may
// still be updated (re-tagging a node into another graph rewrites GraphID);
// NodeID and Class are immutable after creation.
var protectedProps = map[string]struct{}{
	PropGraphID: {},
	PropNodeID:  {},
	PropType:    {},
	PropClass:   {},
	PropName:    {},
}

// immutableProps may never be updated after node creation.
var immutableProps = map[string]struct{}{
	PropNodeID: {},
	PropClass:  {},
}

// jsonProps hold JSON-encoded sub-documents and must parse as JSON
// whenever a graph is validated.
var jsonProps = map[string]struct{}{
	PropLabels:              {},
	PropCapacities:          {},
	PropLabelDelegations:    {},
	PropCapacityDelegations: {},
	PropLabelAllocations:    {},
	PropCapacityAllocations: {},
	PropReservationInfo:     {},
	PropStructuralInfo:      {},
	PropERO:                 {},
	PropPathInfo:            {},
	PropCapacityHints:       {},
	PropGateway:             {},
	PropTags:                {},
	PropFlags:               {},
	PropMeasurementData:     {},
}

// IsProtectedProp reports whether key may never be unset.
func IsProtectedProp(key string) bool {
	_, ok := protectedProps[key]
	return ok
}

// IsImmutableProp reports whether key may never be rewritten after creation.
func IsImmutableProp(key string) bool {
	_, ok := immutableProps[key]
	return ok
}

// IsJSONProp reports whether key is defined to hold a JSON sub-document.
func IsJSONProp(key string) bool {
	_, ok := jsonProps[key]
	return ok
}

// JSONProps returns the keys defined to hold JSON sub-documents.
func JSONProps() []string {
	keys := make([]string, 0, len(jsonProps))
	for k := range jsonProps {
		keys = append(keys, k)
	}
	return keys
}
