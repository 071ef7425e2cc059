package localstore

import (
	"errors"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"operatorpanel/src/security"
)

const sessionTokenName = "session_token"

// CredentialRepository stores the bearer token encrypted at rest. It
// implements session.Persister.
type CredentialRepository struct {
	db  *gorm.DB
	box *security.Box
}

func NewCredentialRepository(box *security.Box) *CredentialRepository {
	return &CredentialRepository{db: DB, box: box}
}

func (r *CredentialRepository) WithDB(db *gorm.DB) *CredentialRepository {
	r.db = db
	return r
}

func (r *CredentialRepository) SaveToken(token string) error {
	ciphertext, err := r.box.EncryptString(token)
	if err != nil {
		return err
	}
	cred := Credential{Name: sessionTokenName, Ciphertext: ciphertext}
	return r.db.
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"ciphertext", "updated_at"}),
		}).
		Create(&cred).Error
}

func (r *CredentialRepository) LoadToken() (string, error) {
	var cred Credential
	err := r.db.Where("name = ?", sessionTokenName).First(&cred).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	token, err := r.box.DecryptString(cred.Ciphertext)
	if err != nil {
		// an undecryptable row is useless, treat it as absent
		logger.WithError(err).Warn("stored credential could not be decrypted")
		return "", nil
	}
	return token, nil
}

func (r *CredentialRepository) ClearToken() error {
	return r.db.Where("name = ?", sessionTokenName).Delete(&Credential{}).Error
}
