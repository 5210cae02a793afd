package store

// Раскладка ключей:
//
//	wf:{execution_id}:definition
//	wf:{execution_id}:status
//	wf:{execution_id}:params
//	wf:{execution_id}:errors
//	wf:{execution_id}:node:{node_id}:status
//	wf:{execution_id}:node:{node_id}:output
//	wf:{execution_id}:node:{node_id}:lock

func executionKey(executionID, field string) string {
	return "wf:" + executionID + ":" + field
}

func nodeKey(executionID, nodeID, field string) string {
	return "wf:" + executionID + ":node:" + nodeID + ":" + field
}

func definitionKey(executionID string) string { return executionKey(executionID, "definition") }
func statusKey(executionID string) string     { return executionKey(executionID, "status") }
func paramsKey(executionID string) string     { return executionKey(executionID, "params") }
func errorKey(executionID string) string      { return executionKey(executionID, "errors") }

func nodeStatusKey(executionID, nodeID string) string { return nodeKey(executionID, nodeID, "status") }
func nodeOutputKey(executionID, nodeID string) string { return nodeKey(executionID, nodeID, "output") }
func nodeLockKey(executionID, nodeID string) string   { return nodeKey(executionID, nodeID, "lock") }
