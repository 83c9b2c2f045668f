package routes

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/kifaa-platform/kifaa/internal/identity"
	"github.com/kifaa-platform/kifaa/internal/wallet"
)

// RegisterProfileRoute exposes the current user's profile with their default
// currency balance.
func RegisterProfileRoute(r fiber.Router, idRepo identity.Repository, wallets *wallet.Service) {
	r.Get("/me", func(c *fiber.Ctx) error {
		uid, _ := c.Locals("user_id").(string)
		if uid == "" {
			return c.SendStatus(http.StatusUnauthorized)
		}
		user, err := idRepo.FindByID(c.UserContext(), uid)
		if err != nil {
			return fiber.NewError(http.StatusUnauthorized, "user not found")
		}
		balance, err := wallets.Balance(c.UserContext(), uid, "")
		if err != nil {
			// No wallet yet reads as zero.
			balance = decimal.Zero
		}
		return c.JSON(fiber.Map{
			"user_id":     user.ID,
			"phone":       user.Phone,
			"email":       user.Email,
			"full_name":   user.FullName,
			"role":        user.Role,
			"kyc_status":  user.KYCStatus,
			"kifaa_score": user.KifaaScore,
			"tier":        user.Tier,
			"created_at":  user.CreatedAt,
			"balance":     balance,
			"currency":    wallets.DefaultCurrency(),
		})
	})
}
