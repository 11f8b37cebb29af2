package upload

import (
	"log"
	"os"
	"path/filepath"
	"strings"

	"aether-backend/internal/database"
	"aether-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const MaxFileSize = 10 * 1024 * 1024

var allowedTypes = []string{"jpeg", "jpg", "png", "pdf"}

func allowed(s string) bool {
	s = strings.ToLower(s)
	for _, t := range allowedTypes {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

// POST /api/upload
// The file is kept locally even when pinning fails; ipfsHash is then null.
func UploadHandler(dir string, pinata *Pinata) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "No file uploaded")
		}

		owner := c.FormValue("userAddress")
		if owner == "" {
			owner = c.Get("X-User-Address")
		}
		if owner == "" {
			return fiber.NewError(fiber.StatusBadRequest, "userAddress is required to identify the owner")
		}

		ext := strings.ToLower(filepath.Ext(fh.Filename))
		if ext == "" || !allowed(ext) || !allowed(fh.Header.Get("Content-Type")) {
			return fiber.NewError(fiber.StatusBadRequest, "Only images and PDFs are allowed")
		}
		if fh.Size > MaxFileSize {
			return fiber.NewError(fiber.StatusBadRequest, "File exceeds the 10MB limit")
		}

		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Printf("Upload dir %s unavailable: %v", dir, err)
			return fiber.NewError(fiber.StatusInternalServerError, "Upload failed")
		}
		stored := "file-" + uuid.NewString() + ext
		path := filepath.Join(dir, stored)
		if err := c.SaveFile(fh, path); err != nil {
			log.Printf("Saving upload %s failed: %v", fh.Filename, err)
			return fiber.NewError(fiber.StatusInternalServerError, "Upload failed")
		}

		var ipfsHash *string
		if pinata != nil {
			hash, err := pinata.Pin(path, fh.Filename)
			if err != nil {
				log.Printf("Pinata upload failed, local file kept: %v", err)
			} else {
				log.Printf("Pinned %s as %s", fh.Filename, hash)
				ipfsHash = &hash
			}
		}

		fileURL := "/uploads/" + stored
		doc := models.Document{
			UserAddress: owner,
			FileName:    fh.Filename,
			FileURL:     fileURL,
			IPFSHash:    ipfsHash,
			Status:      models.DocumentPending,
		}
		if err := database.DB.Create(&doc).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Upload failed")
		}

		msg := "File uploaded locally (IPFS failed)"
		if ipfsHash != nil {
			msg = "File uploaded to Local & IPFS successfully"
		}
		return c.JSON(fiber.Map{
			"message":    msg,
			"fileUrl":    fileURL,
			"fileName":   fh.Filename,
			"ipfsHash":   ipfsHash,
			"documentId": doc.ID,
		})
	}
}

// GET /api/upload/user/:address
func ListDocumentsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var docs []models.Document
		if err := database.DB.Where("user_address = ?", c.Params("address")).
			Order("created_at DESC").Order("id DESC").
			Find(&docs).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to fetch documents")
		}
		return c.JSON(fiber.Map{"documents": docs})
	}
}
