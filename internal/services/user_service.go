package services

import (
	"errors"
	"strings"

	"github.com/diewo77/cartographie/internal/models"
	"github.com/diewo77/cartographie/internal/policy"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// RegisterInput porte les champs du formulaire d'inscription.
type RegisterInput struct {
	Email    string
	Password string
	Nom      string
	Prenom   string
	Role     string
}

// OAuthInfo est le profil renvoyé par le fournisseur d'identité.
type OAuthInfo struct {
	Provider string
	Subject  string
	Email    string
	Nom      string
	Prenom   string
	Picture  string
}

// ProfileInput porte les champs du formulaire de complétion de profil.
type ProfileInput struct {
	Telephone   string
	Institution string
	Departement string
	Specialite  string
	NiveauEtude string
	Bio         string
}

type UserService struct{ DB *gorm.DB }

func NewUserService(db *gorm.DB) *UserService { return &UserService{DB: db} }

// Register crée un compte local. Le rôle est validé à la frontière, le mot
// de passe haché en bcrypt.
func (s *UserService) Register(in RegisterInput) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || in.Password == "" {
		return nil, errors.New("missing_email_or_password")
	}
	role := policy.RoleCandidat
	if in.Role != "" {
		r, err := policy.ParseRole(in.Role)
		if err != nil {
			return nil, err
		}
		role = r
	}
	var count int64
	if err := s.DB.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrEmailTaken
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := models.User{
		ID:               uuid.NewString(),
		Email:            email,
		Password:         string(hash),
		Nom:              strings.TrimSpace(in.Nom),
		Prenom:           strings.TrimSpace(in.Prenom),
		Role:             string(role),
		Active:           true,
		ProfileCompleted: role != policy.RoleCandidat,
	}
	if err := s.DB.Create(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// Authenticate vérifie un couple email/mot de passe.
func (s *UserService) Authenticate(email, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var u models.User
	err := s.DB.Where("email = ?", email).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrBadCredentials
	}
	if err != nil {
		return nil, err
	}
	if !u.Active {
		return nil, ErrAccountDisabled
	}
	if u.Password == "" {
		return nil, ErrBadCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) != nil {
		return nil, ErrBadCredentials
	}
	return &u, nil
}

// ProvisionOAuth trouve ou crée le compte associé à une connexion OAuth.
// Un compte local existant est lié au fournisseur à la première connexion.
func (s *UserService) ProvisionOAuth(info OAuthInfo) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(info.Email))
	if email == "" {
		return nil, errors.New("missing_oauth_email")
	}
	var u models.User
	err := s.DB.Where("email = ?", email).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		u = models.User{
			ID:       uuid.NewString(),
			Email:    email,
			Nom:      info.Nom,
			Prenom:   info.Prenom,
			Role:     string(policy.RoleCandidat),
			OauthID:  info.Subject,
			Provider: info.Provider,
			Picture:  info.Picture,
			Active:   true,
		}
		if err := s.DB.Create(&u).Error; err != nil {
			return nil, err
		}
		return &u, nil
	}
	if err != nil {
		return nil, err
	}
	if !u.Active {
		return nil, ErrAccountDisabled
	}
	if u.OauthID == "" {
		u.OauthID = info.Subject
		u.Provider = info.Provider
		if u.Picture == "" {
			u.Picture = info.Picture
		}
	}
	u.ProfileCompleted = profileCompleted(&u)
	if err := s.DB.Save(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// profileCompleted applique la règle de complétion : les gestionnaires et
// admins sont toujours complets, un candidat doit renseigner institution et
// téléphone.
func profileCompleted(u *models.User) bool {
	if u.Role != string(policy.RoleCandidat) {
		return true
	}
	return strings.TrimSpace(u.Institution) != "" && strings.TrimSpace(u.Telephone) != ""
}

// CompleteProfile enregistre les champs du profil candidat et marque le
// compte comme complet.
func (s *UserService) CompleteProfile(userID string, in ProfileInput) (*models.User, error) {
	u, err := s.Get(userID)
	if err != nil {
		return nil, err
	}
	u.Telephone = strings.TrimSpace(in.Telephone)
	u.Institution = strings.TrimSpace(in.Institution)
	u.Departement = strings.TrimSpace(in.Departement)
	u.Specialite = strings.TrimSpace(in.Specialite)
	u.NiveauEtude = strings.TrimSpace(in.NiveauEtude)
	u.Bio = in.Bio
	u.ProfileCompleted = true
	if err := s.DB.Save(u).Error; err != nil {
		return nil, err
	}
	return u, nil
}

// Get charge un utilisateur par id.
func (s *UserService) Get(id string) (*models.User, error) {
	var u models.User
	err := s.DB.First(&u, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ByEmail charge un utilisateur par email.
func (s *UserService) ByEmail(email string) (*models.User, error) {
	var u models.User
	err := s.DB.Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// List retourne tous les comptes, du plus récent au plus ancien.
func (s *UserService) List() ([]models.User, error) {
	var users []models.User
	if err := s.DB.Order("created_at DESC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// SearchUsers filtre les comptes sur nom, prénom ou email.
func (s *UserService) SearchUsers(keyword string) ([]models.User, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return s.List()
	}
	like := "%" + keyword + "%"
	var users []models.User
	err := s.DB.Where("nom LIKE ? OR prenom LIKE ? OR email LIKE ?", like, like, like).
		Order("created_at DESC").Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

// UpdateUserInput porte les champs modifiables d'un compte par un admin.
type UpdateUserInput struct {
	Nom         string
	Prenom      string
	Role        string
	Telephone   string
	Institution string
	Departement string
	Specialite  string
	NiveauEtude string
	Bio         string
}

// UpdateUser modifie les champs d'un compte (formulaire admin).
func (s *UserService) UpdateUser(id string, in UpdateUserInput) (*models.User, error) {
	u, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if in.Role != "" {
		role, err := policy.ParseRole(in.Role)
		if err != nil {
			return nil, err
		}
		u.Role = string(role)
	}
	u.Nom = strings.TrimSpace(in.Nom)
	u.Prenom = strings.TrimSpace(in.Prenom)
	u.Telephone = strings.TrimSpace(in.Telephone)
	u.Institution = strings.TrimSpace(in.Institution)
	u.Departement = strings.TrimSpace(in.Departement)
	u.Specialite = strings.TrimSpace(in.Specialite)
	u.NiveauEtude = strings.TrimSpace(in.NiveauEtude)
	u.Bio = in.Bio
	u.ProfileCompleted = profileCompleted(u)
	if err := s.DB.Save(u).Error; err != nil {
		return nil, err
	}
	return u, nil
}

// ChangeRole remplace le rôle d'un compte.
func (s *UserService) ChangeRole(id, role string) (*models.User, error) {
	r, err := policy.ParseRole(role)
	if err != nil {
		return nil, err
	}
	u, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	u.Role = string(r)
	u.ProfileCompleted = profileCompleted(u)
	if err := s.DB.Save(u).Error; err != nil {
		return nil, err
	}
	return u, nil
}

// ToggleActive active ou désactive un compte.
func (s *UserService) ToggleActive(id string) (*models.User, error) {
	u, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	u.Active = !u.Active
	if err := s.DB.Model(u).Update("active", u.Active).Error; err != nil {
		return nil, err
	}
	return u, nil
}

// DeleteUser supprime un compte et ses projets.
func (s *UserService) DeleteUser(id string) error {
	u, err := s.Get(id)
	if err != nil {
		return err
	}
	var projects []models.ResearchProject
	if err := s.DB.Where("proprietaire_id = ?", u.ID).Find(&projects).Error; err != nil {
		return err
	}
	return s.DB.Transaction(func(tx *gorm.DB) error {
		for i := range projects {
			if err := tx.Model(&projects[i]).Association("Members").Clear(); err != nil {
				return err
			}
			if err := tx.Delete(&projects[i]).Error; err != nil {
				return err
			}
		}
		if err := tx.Model(u).Association("Projects").Clear(); err != nil {
			return err
		}
		return tx.Delete(u).Error
	})
}

// Candidates retourne les candidats actifs, pour la sélection des membres
// d'un projet.
func (s *UserService) Candidates() ([]models.User, error) {
	var users []models.User
	err := s.DB.Where("role = ? AND active = ?", string(policy.RoleCandidat), true).
		Order("nom ASC").Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}
