package message

import (
	"log"
	"time"

	"aether-backend/internal/database"
	"aether-backend/internal/models"
	"aether-backend/internal/user"
	"aether-backend/internal/web"

	"github.com/gofiber/fiber/v2"
)

type SendRequest struct {
	SenderAddress   string `json:"senderAddress"`
	ReceiverAddress string `json:"receiverAddress"`
	Content         string `json:"content"`
}

type Conversation struct {
	Partner     string          `json:"partner"`
	PartnerName string          `json:"partnerName"`
	PartnerRole models.UserRole `json:"partnerRole"`
	LastMessage string          `json:"lastMessage"`
	Time        time.Time       `json:"time"`
	UnreadCount int             `json:"unreadCount"`
}

// Conversations groups the messages of address by counterpart, most recent first.
func Conversations(address string) ([]Conversation, error) {
	var msgs []models.Message
	if err := database.DB.
		Where("sender_address = ? OR receiver_address = ?", address, address).
		Order("created_at DESC").Order("id DESC").
		Find(&msgs).Error; err != nil {
		return nil, err
	}

	convs := []Conversation{}
	index := map[string]int{}
	for _, m := range msgs {
		partner := m.SenderAddress
		if partner == address {
			partner = m.ReceiverAddress
		}
		unread := m.ReceiverAddress == address && !m.IsRead

		i, ok := index[partner]
		if !ok {
			index[partner] = len(convs)
			convs = append(convs, Conversation{
				Partner:     partner,
				LastMessage: m.Content,
				Time:        m.CreatedAt,
			})
			i = len(convs) - 1
		}
		if unread {
			convs[i].UnreadCount++
		}
	}
	if len(convs) == 0 {
		return convs, nil
	}

	partners := make([]string, 0, len(convs))
	for _, c := range convs {
		partners = append(partners, c.Partner)
	}
	var users []models.User
	if err := database.DB.Where("wallet_address IN ?", partners).Find(&users).Error; err != nil {
		return nil, err
	}
	known := make(map[string]models.User, len(users))
	for _, u := range users {
		known[u.WalletAddress] = u
	}

	for i := range convs {
		convs[i].PartnerName = "Anonymous User"
		convs[i].PartnerRole = models.RoleUser
		if u, ok := known[convs[i].Partner]; ok {
			if u.Name != nil && *u.Name != "" {
				convs[i].PartnerName = *u.Name
			}
			if u.Role != "" {
				convs[i].PartnerRole = u.Role
			}
		}
	}
	return convs, nil
}

// GET /api/messages?address=
func ListConversationsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		address := web.NormalizeAddress(c.Query("address"))
		if address == "" {
			return fiber.NewError(fiber.StatusBadRequest, "User address required")
		}

		convs, err := Conversations(address)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to fetch conversations")
		}
		return c.JSON(fiber.Map{"conversations": convs})
	}
}

// GET /api/messages/unread-count?address=
func UnreadCountHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		address := web.NormalizeAddress(c.Query("address"))
		if address == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Address required")
		}

		var count int64
		if err := database.DB.Model(&models.Message{}).
			Where("receiver_address = ? AND is_read = ?", address, false).
			Count(&count).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to fetch unread count")
		}
		return c.JSON(fiber.Map{"count": count})
	}
}

// GET /api/messages/:partner?userAddress=
// Incoming messages from partner are marked read once returned.
func HistoryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		me := web.NormalizeAddress(c.Query("userAddress"))
		partner := web.NormalizeAddress(c.Params("partner"))
		if me == "" || partner == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Addresses required")
		}

		var msgs []models.Message
		if err := database.DB.
			Where("(sender_address = ? AND receiver_address = ?) OR (sender_address = ? AND receiver_address = ?)",
				me, partner, partner, me).
			Order("created_at ASC").Order("id ASC").
			Find(&msgs).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to fetch chat history")
		}

		if err := database.DB.Model(&models.Message{}).
			Where("sender_address = ? AND receiver_address = ? AND is_read = ?", partner, me, false).
			Update("is_read", true).Error; err != nil {
			log.Printf("Marking messages from %s to %s read failed: %v", partner, me, err)
		}

		return c.JSON(fiber.Map{"messages": msgs})
	}
}

func participant(address, adminAddress, fallbackName string) models.User {
	if address == adminAddress {
		name := "Platform Admin"
		return models.User{Name: &name, Role: models.RoleAdmin}
	}
	name := fallbackName
	return models.User{Name: &name, Role: models.RoleUser}
}

// POST /api/messages
// Both sides are registered on first contact so conversations can show names and roles.
func SendHandler(adminAddress string) fiber.Handler {
	adminAddress = web.NormalizeAddress(adminAddress)

	return func(c *fiber.Ctx) error {
		var body SendRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		sender := web.NormalizeAddress(body.SenderAddress)
		receiver := web.NormalizeAddress(body.ReceiverAddress)
		if sender == "" || receiver == "" || body.Content == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Missing fields")
		}

		if _, _, err := user.FindOrCreate(database.DB, sender, participant(sender, adminAddress, "Investor")); err != nil {
			log.Printf("Registering sender %s failed: %v", sender, err)
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to send message")
		}
		if _, _, err := user.FindOrCreate(database.DB, receiver, participant(receiver, adminAddress, "Counterparty")); err != nil {
			log.Printf("Registering receiver %s failed: %v", receiver, err)
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to send message")
		}

		msg := models.Message{
			SenderAddress:   sender,
			ReceiverAddress: receiver,
			Content:         body.Content,
		}
		if err := database.DB.Create(&msg).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to send message")
		}
		return c.JSON(fiber.Map{"message": msg})
	}
}
