package domain

// Capabilities is the set of operations a role may perform
type Capabilities struct {
	CanSubmitApplication    bool `json:"canSubmitApplication"`
	CanReview               bool `json:"canReview"`
	CanApprove              bool `json:"canApprove"`
	CanReject               bool `json:"canReject"`
	CanVerifyDocuments      bool `json:"canVerifyDocuments"`
	CanSubmitToFAO          bool `json:"canSubmitToFAO"`
	CanAllocate             bool `json:"canAllocate"`
	CanEditAllocationAmount bool `json:"canEditAllocationAmount"`
	CanManageFunds          bool `json:"canManageFunds"`
	CanDisburse             bool `json:"canDisburse"`
	CanManageDeadlines      bool `json:"canManageDeadlines"`
	CanManageUsers          bool `json:"canManageUsers"`
	CanViewAll              bool `json:"canViewAll"`
}

var (
	studentCapabilities = Capabilities{
		CanSubmitApplication: true,
	}
	aroCapabilities = Capabilities{
		CanReview:          true,
		CanApprove:         true,
		CanReject:          true,
		CanVerifyDocuments: true,
		CanSubmitToFAO:     true,
		CanViewAll:         true,
	}
	faoCapabilities = Capabilities{
		CanAllocate:             true,
		CanEditAllocationAmount: true,
		CanManageFunds:          true,
		CanViewAll:              true,
	}
	fdoCapabilities = Capabilities{
		CanDisburse: true,
		CanViewAll:  true,
	}
)

// CapabilitiesFor resolves the capability set of a role.
// Unknown roles resolve to the zero set; superadmin is the union of all others.
func CapabilitiesFor(role Role) Capabilities {
	switch role {
	case RoleStudent:
		return studentCapabilities
	case RoleARO:
		return aroCapabilities
	case RoleFAO:
		return faoCapabilities
	case RoleFDO:
		return fdoCapabilities
	case RoleSuperadmin:
		c := studentCapabilities.union(aroCapabilities).union(faoCapabilities).union(fdoCapabilities)
		c.CanManageDeadlines = true
		c.CanManageUsers = true
		return c
	default:
		return Capabilities{}
	}
}

func (c Capabilities) union(o Capabilities) Capabilities {
	return Capabilities{
		CanSubmitApplication:    c.CanSubmitApplication || o.CanSubmitApplication,
		CanReview:               c.CanReview || o.CanReview,
		CanApprove:              c.CanApprove || o.CanApprove,
		CanReject:               c.CanReject || o.CanReject,
		CanVerifyDocuments:      c.CanVerifyDocuments || o.CanVerifyDocuments,
		CanSubmitToFAO:          c.CanSubmitToFAO || o.CanSubmitToFAO,
		CanAllocate:             c.CanAllocate || o.CanAllocate,
		CanEditAllocationAmount: c.CanEditAllocationAmount || o.CanEditAllocationAmount,
		CanManageFunds:          c.CanManageFunds || o.CanManageFunds,
		CanDisburse:             c.CanDisburse || o.CanDisburse,
		CanManageDeadlines:      c.CanManageDeadlines || o.CanManageDeadlines,
		CanManageUsers:          c.CanManageUsers || o.CanManageUsers,
		CanViewAll:              c.CanViewAll || o.CanViewAll,
	}
}

// Capability names used in PermissionDenied errors
const (
	CapSubmitApplication = "canSubmitApplication"
	CapReview            = "canReview"
	CapApprove           = "canApprove"
	CapReject            = "canReject"
	CapVerifyDocuments   = "canVerifyDocuments"
	CapSubmitToFAO       = "canSubmitToFAO"
	CapAllocate          = "canAllocate"
	CapManageFunds       = "canManageFunds"
	CapDisburse          = "canDisburse"
	CapManageDeadlines   = "canManageDeadlines"
	CapManageUsers       = "canManageUsers"
	CapViewAll           = "canViewAll"
)

// Has reports whether the capability set grants the named capability
func (c Capabilities) Has(name string) bool {
	switch name {
	case CapSubmitApplication:
		return c.CanSubmitApplication
	case CapReview:
		return c.CanReview
	case CapApprove:
		return c.CanApprove
	case CapReject:
		return c.CanReject
	case CapVerifyDocuments:
		return c.CanVerifyDocuments
	case CapSubmitToFAO:
		return c.CanSubmitToFAO
	case CapAllocate:
		return c.CanAllocate
	case CapManageFunds:
		return c.CanManageFunds
	case CapDisburse:
		return c.CanDisburse
	case CapManageDeadlines:
		return c.CanManageDeadlines
	case CapManageUsers:
		return c.CanManageUsers
	case CapViewAll:
		return c.CanViewAll
	}
	return false
}

// Require returns a PermissionDenied error unless role has every named capability
func Require(role Role, capabilities ...string) error {
	caps := CapabilitiesFor(role)
	for _, name := range capabilities {
		if !caps.Has(name) {
			return denied(role, name)
		}
	}
	return nil
}
