// Copyright (c) 2024-2025 The dllm-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package indexer

import "fmt"

// DefaultContract is the on-chain address of the dllm Move module.
const DefaultContract = "0xf4289dca4fe79c4e61fe1255d7f47556c38f512b5cf9ddf727f0e44a5c6a6b00"

// DefaultModule is the Move module name under the contract.
const DefaultModule = "dllm"

// Event kinds emitted by the module.
const (
	EventSessionCreated = "SessionCreated"
	EventTokenClaimed   = "TokenClaimed"
)

// Operation names.
const (
	OpCreatedSessions = "CreatedSessions"
	OpClaimedRequests = "ClaimedRequests"
)

// EventType is the fully qualified Move event type tag.
func EventType(contract, module, event string) string {
	return fmt.Sprintf("%s::%s::%s", contract, module, event)
}

const eventsQuery = `query %s($jsonFilter: jsonb, $limit: Int, $offset: Int) {
  events(
    where: {indexed_type: {_eq: "%s"}, data: {_contains: $jsonFilter}}
    offset: $offset
    limit: $limit
    order_by: {transaction_version: desc}
  ) {
    data
    type
  }
}`

// EventsQuery renders the GraphQL text for operation over event type tag.
func EventsQuery(operation, typeTag string) string {
	return fmt.Sprintf(eventsQuery, operation, typeTag)
}
