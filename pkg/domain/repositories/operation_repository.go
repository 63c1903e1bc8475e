package repositories

import "github.com/vsinha/wms/pkg/domain/entities"

// OperationReader provides read access to operations
type OperationReader interface {
	GetOperation(id entities.OperationID) (*entities.Operation, error)
	ListOperations() ([]*entities.Operation, error)
}

// OperationRepository provides read/write access to operations inside a transaction
type OperationRepository interface {
	OperationReader
	InsertOperation(op *entities.Operation) (*entities.Operation, error)
	UpdateOperation(id entities.OperationID, mutator func(*entities.Operation) error) (*entities.Operation, error)
}
