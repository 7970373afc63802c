// Package remote implements the authflow Backend over the backend's HTTP
// JSON contract.
//
// Every method is one request. Classified rejections arrive as an error
// envelope with a stable code and are mapped back to the authflow
// sentinels; anything else (transport failures, unexpected statuses)
// surfaces as a plain error for the engine to wrap.
//
// # Architecture boundaries
//
// This package owns transport only. Flow sequencing, retries and session
// persistence belong to the engine.
package remote
