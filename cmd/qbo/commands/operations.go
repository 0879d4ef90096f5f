package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/apigrate/quickbooks/internal/constants"
	"github.com/apigrate/quickbooks/pkg/qbo"
)

// lookupEntity resolves handle on the connector.
func lookupEntity(s *session, handle string) (*qbo.Entity, error) {
	entity, ok := s.conn.Accounting().Entity(handle)
	if !ok {
		return nil, fmt.Errorf("%w: %q (see \"qbo entities\")", constants.ErrUnknownEntity, handle)
	}

	return entity, nil
}

func unsupported(entity *qbo.Entity, operation string) error {
	return fmt.Errorf("%w: %s does not support %s", constants.ErrUnsupportedOperation, entity.Descriptor.Handle, operation)
}

// runEntityCommand opens a session, resolves handle and writes
// the payload returned by call.
func runEntityCommand(
	cmd *cobra.Command,
	handle string,
	call func(*qbo.Entity) (json.RawMessage, error),
) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	entity, err := lookupEntity(s, handle)
	if err != nil {
		return err
	}

	payload, err := call(entity)
	if err != nil {
		return err
	}

	return writePayload(cmd.OutOrStdout(), payload)
}

// NewGetCommand creates the get command.
func NewGetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get ENTITY ID",
		Short: "Read an entity by id",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEntityCommand(cmd, args[0], func(entity *qbo.Entity) (json.RawMessage, error) {
				if entity.Reader == nil {
					return nil, unsupported(entity, "read")
				}

				return entity.Reader.Get(cmd.Context(), args[1], callOptions(cmd))
			})
		},
	}

	addCallFlags(cmd)

	return cmd
}

// NewQueryCommand creates the query command.
func NewQueryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query ENTITY [STATEMENT]",
		Short: "Run a query (defaults to select * from ENTITY)",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			statement := ""
			if len(args) == 2 {
				statement = args[1]
			}

			return runEntityCommand(cmd, args[0], func(entity *qbo.Entity) (json.RawMessage, error) {
				if entity.Querier == nil {
					return nil, unsupported(entity, "query")
				}

				return entity.Querier.Query(cmd.Context(), statement, callOptions(cmd))
			})
		},
	}

	addCallFlags(cmd)

	return cmd
}

// NewCreateCommand creates the create command.
func NewCreateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create ENTITY PAYLOAD",
		Short: "Create an entity (PAYLOAD is JSON, @file or - for stdin)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := readPayload(cmd, args[1])
			if err != nil {
				return err
			}

			return runEntityCommand(cmd, args[0], func(entity *qbo.Entity) (json.RawMessage, error) {
				if entity.Creator == nil {
					return nil, unsupported(entity, "create")
				}

				return entity.Creator.Create(cmd.Context(), payload, callOptions(cmd))
			})
		},
	}

	addCallFlags(cmd)

	return cmd
}

// NewUpdateCommand creates the update command.
func NewUpdateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update ENTITY PAYLOAD",
		Short: "Update an entity (PAYLOAD must carry Id and SyncToken)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := readPayload(cmd, args[1])
			if err != nil {
				return err
			}

			return runEntityCommand(cmd, args[0], func(entity *qbo.Entity) (json.RawMessage, error) {
				if entity.Updater == nil {
					return nil, unsupported(entity, "update")
				}

				return entity.Updater.Update(cmd.Context(), payload, callOptions(cmd))
			})
		},
	}

	addCallFlags(cmd)

	return cmd
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete ENTITY PAYLOAD",
		Short: "Delete an entity (PAYLOAD must carry Id and SyncToken)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := readPayload(cmd, args[1])
			if err != nil {
				return err
			}

			return runEntityCommand(cmd, args[0], func(entity *qbo.Entity) (json.RawMessage, error) {
				if entity.Deleter == nil {
					return nil, unsupported(entity, "delete")
				}

				return entity.Deleter.Delete(cmd.Context(), payload, callOptions(cmd))
			})
		},
	}

	addCallFlags(cmd)

	return cmd
}

// NewReportCommand creates the report command.
func NewReportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report REPORT [KEY=VALUE...]",
		Short: "Run a report",
		Long:  "Run a report; parameters such as start_date=2024-01-01 are passed through unchanged",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := parseReportParams(args[1:])
			if err != nil {
				return err
			}

			return runEntityCommand(cmd, args[0], func(entity *qbo.Entity) (json.RawMessage, error) {
				if entity.Reporter == nil {
					return nil, unsupported(entity, "report")
				}

				return entity.Reporter.Report(cmd.Context(), params, callOptions(cmd))
			})
		},
	}

	addCallFlags(cmd)

	return cmd
}

// NewBatchCommand creates the batch command.
func NewBatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch PAYLOAD",
		Short: "Submit a batch request (PAYLOAD is JSON, @file or - for stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := readPayload(cmd, args[0])
			if err != nil {
				return err
			}

			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			result, err := s.conn.Accounting().Batch(cmd.Context(), payload, callOptions(cmd))
			if err != nil {
				return err
			}

			return writePayload(cmd.OutOrStdout(), result)
		},
	}

	addCallFlags(cmd)

	return cmd
}
