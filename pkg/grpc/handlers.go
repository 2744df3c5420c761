package grpc

import (
	"context"
	"time"

	z "github.com/Oudwins/zog"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"liyu1981.xyz/field-presence-service/pkg/common"
	"liyu1981.xyz/field-presence-service/pkg/models"
	"liyu1981.xyz/field-presence-service/pkg/tracker"
)

var employeeIDValidator = z.String().Trim().Min(1).Required()

func (p *PresenceServer) GetPresence(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	employeeID := req.GetValue()
	if issues := employeeIDValidator.Validate(&employeeID); len(issues) > 0 {
		return nil, status.Error(codes.InvalidArgument, "employee id is required")
	}

	employee, err := p.Store.GetEmployeeActiveByID(ctx, employeeID)
	if err != nil {
		return nil, toStatus(&tracker.PersistenceError{Op: "get employee", Err: err})
	}
	if employee == nil {
		return nil, status.Errorf(codes.NotFound, "employee %s not found", employeeID)
	}

	presence, err := p.Tracker.Presence.Current(ctx, employeeID)
	if err != nil {
		return nil, toStatus(err)
	}

	fields := presenceFields(*presence)
	fields["fullName"] = employee.FullName
	fields["connections"] = p.Tracker.Registry.Connections(employeeID)
	return structpb.NewStruct(fields)
}

func (p *PresenceServer) ListOnline(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	online, err := p.Store.ListOnline(ctx)
	if err != nil {
		return nil, toStatus(&tracker.PersistenceError{Op: "list online", Err: err})
	}

	return structpb.NewStruct(map[string]any{
		"count": len(online),
		"employees": common.Mapper(online, func(presence models.Presence) any {
			return presenceFields(presence)
		}),
	})
}

func (p *PresenceServer) GetStats(_ context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	managers, employees := p.Tracker.Registry.Counts()
	published, dropped := p.Tracker.Hub.Stats()

	return structpb.NewStruct(map[string]any{
		"managerSessions":  managers,
		"employeeSessions": employees,
		"published":        published,
		"dropped":          dropped,
	})
}

func presenceFields(presence models.Presence) map[string]any {
	fields := map[string]any{
		"employeeId": presence.EmployeeID,
		"isOnline":   presence.IsOnline,
		"lastSeenAt": nil,
	}
	if !presence.LastSeenAt.IsZero() {
		fields["lastSeenAt"] = presence.LastSeenAt.UTC().Format(time.RFC3339Nano)
	}
	return fields
}
