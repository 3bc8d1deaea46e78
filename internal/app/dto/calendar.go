package dto

import domainrooms "lodging/internal/domain/rooms"

type BulkEditResult struct {
	OK      bool   `json:"ok"`
	RoomID  string `json:"room_id"`
	Applied int    `json:"applied"`
}

func (r BulkEditResult) RoomScope() domainrooms.RoomID { return domainrooms.RoomID(r.RoomID) }
