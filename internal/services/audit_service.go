package services

import (
	"gorm.io/gorm"

	"finledger/internal/logger"
	"finledger/internal/models"
	"finledger/internal/pagination"
)

// auditService records user-initiated mutations.
type auditService struct {
	db *gorm.DB
}

// NewAuditService creates a new AuditServicer.
func NewAuditService(db *gorm.DB) AuditServicer {
	return &auditService{db: db}
}

// Record writes an audit log entry. Auditing is best effort: a failure to
// record is logged but never fails the operation being audited.
func (s *auditService) Record(userID uint, action, resourceType string, resourceID uint, ipAddress, changes string) {
	entry := &models.AuditLog{
		UserID:       userID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		IPAddress:    ipAddress,
		Changes:      changes,
	}
	if err := s.db.Create(entry).Error; err != nil {
		logger.Get().Errorw("failed to record audit log",
			"user_id", userID,
			"action", action,
			"resource_type", resourceType,
			"error", err.Error(),
		)
	}
}

// GetUserAuditLogs retrieves a paginated list of the user's audit entries.
func (s *auditService) GetUserAuditLogs(userID uint, page pagination.PageRequest) (*pagination.PageResponse[models.AuditLog], error) {
	page.Defaults()

	base := s.db.Model(&models.AuditLog{}).Where("user_id = ?", userID)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, wrapDBError(err)
	}

	var logs []models.AuditLog
	if err := base.Scopes(pagination.Paginate(page)).Order("id desc").Find(&logs).Error; err != nil {
		return nil, wrapDBError(err)
	}

	resp := pagination.NewPageResponse(logs, page.Page, page.PageSize, totalItems)
	return &resp, nil
}
