package amqp

import (
	"encoding/json"
	"time"
)

// TransactionSyncMessage asks the worker to export one transaction.
// It carries only the ID; the worker fetches the current row from the
// database so a stale message can never export stale data.
type TransactionSyncMessage struct {
	ID        int64     `json:"id"`
	Version   int64     `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

func NewTransactionSyncMessage(id, version int64) *TransactionSyncMessage {
	return &TransactionSyncMessage{
		ID:        id,
		Version:   version,
		Timestamp: time.Now(),
	}
}

func (m *TransactionSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func TransactionSyncMessageFromJSON(data []byte) (*TransactionSyncMessage, error) {
	var msg TransactionSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// ReceiptOrphanMessage flags an upload that is no longer referenced by
// any transaction row. The file is never deleted automatically; the
// message exists so the orphan shows up in the worker's audit log.
type ReceiptOrphanMessage struct {
	Path          string    `json:"path"`
	Reason        string    `json:"reason"`
	TransactionID int64     `json:"transaction_id"`
	Timestamp     time.Time `json:"timestamp"`
}

func NewReceiptOrphanMessage(path, reason string, transactionID int64) *ReceiptOrphanMessage {
	return &ReceiptOrphanMessage{
		Path:          path,
		Reason:        reason,
		TransactionID: transactionID,
		Timestamp:     time.Now(),
	}
}

func (m *ReceiptOrphanMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ReceiptOrphanMessageFromJSON(data []byte) (*ReceiptOrphanMessage, error) {
	var msg ReceiptOrphanMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
