package handlers

// @title Tailor Billing API
// @version 1.0
// @description Bills, receipts and payment validation for a tailoring shop

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8081
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @tag.name receipts
// @tag.description Payment recording and receipts

// @tag.name bills
// @tag.description Bills and delivery

// @tag.name taxes
// @tag.description Tax definitions

// @tag.name reports
// @tag.description Dashboard statistics and exports
