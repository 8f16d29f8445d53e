package service

import "surplus-saver-api/internal/model"

// Action names something a caller can ask the API to do.
type Action string

const (
	ActionDeposit       Action = "deposit"
	ActionViewBalance   Action = "view_balance"
	ActionViewLedger    Action = "view_ledger"
	ActionUpdateProfile Action = "update_profile"

	ActionPlaceOrder    Action = "place_order"
	ActionConfirmOrder  Action = "confirm_order"
	ActionCancelOrder   Action = "cancel_order"
	ActionCompleteOrder Action = "complete_order"
	ActionRefundOrder   Action = "refund_order"
	ActionViewOrders    Action = "view_orders"

	ActionManageBags      Action = "manage_bags"
	ActionViewStoreOrders Action = "view_store_orders"
	ActionViewStoreStats  Action = "view_store_stats"
	ActionRequestReport   Action = "request_report"
)

// policyTable is the single source of truth for role permissions. Handlers
// never hardcode role checks; they ask Allow.
var policyTable = map[model.Role]map[Action]bool{
	model.RoleCustomer: {
		ActionDeposit:       true,
		ActionViewBalance:   true,
		ActionViewLedger:    true,
		ActionUpdateProfile: true,
		ActionPlaceOrder:    true,
		ActionConfirmOrder:  true,
		ActionCancelOrder:   true,
		ActionCompleteOrder: true,
		ActionRefundOrder:   true,
		ActionViewOrders:    true,
	},
	model.RoleStore: {
		ActionViewBalance:     true,
		ActionViewLedger:      true,
		ActionUpdateProfile:   true,
		ActionManageBags:      true,
		ActionViewStoreOrders: true,
		ActionViewStoreStats:  true,
		ActionRequestReport:   true,
	},
}

// Allow reports whether the role may perform the action. Unknown roles and
// unknown actions are denied.
func Allow(role model.Role, action Action) bool {
	return policyTable[role][action]
}
