package social

import (
	"context"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/example/wortbot/internal/database"
	"github.com/example/wortbot/internal/logger"
	"github.com/example/wortbot/pkg/models"
)

var (
	ErrNotFriends      = errors.New("you are not friends with this user")
	ErrForbidden       = errors.New("this request is not addressed to you")
	ErrRequestNotFound = errors.New("friend request not found")
	ErrUserNotFound    = errors.New("user not found")
	ErrSelfRequest     = errors.New("you cannot add yourself")
	ErrAlreadyFriends  = errors.New("you are already friends")
	ErrRequestExists   = errors.New("a friend request is already pending")
	ErrNameTaken       = errors.New("display name is already taken")
	ErrInvalidName     = errors.New("display name must be 3-24 letters, digits, '_' or '-'")
	ErrNoDisplayName   = errors.New("set a display name first")
)

const (
	// FriendPlayLimit caps how many of a friend's words a session sees
	FriendPlayLimit = 50
	searchLimit     = 10
)

type UserStore interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
	FindByDisplayName(ctx context.Context, name string) (*models.User, error)
	SearchByDisplayName(ctx context.Context, prefix string, limit int) ([]models.User, error)
	SetDisplayName(ctx context.Context, id int64, name string) error
}

type FriendStore interface {
	ListByUser(ctx context.Context, userID int64) ([]models.Friend, error)
	AreFriends(ctx context.Context, userID, friendID int64) (bool, error)
	CreateRequest(ctx context.Context, req *models.FriendRequest) error
	GetRequest(ctx context.Context, id string) (*models.FriendRequest, error)
	FindRequest(ctx context.Context, fromID, toID int64) (*models.FriendRequest, error)
	PendingFor(ctx context.Context, toID int64) ([]models.FriendRequest, error)
	DeleteRequest(ctx context.Context, id string) error
	Accept(ctx context.Context, req *models.FriendRequest, at time.Time) error
	Remove(ctx context.Context, userID, friendID int64) error
}

type WordStore interface {
	ListByUser(ctx context.Context, userID int64) ([]models.Word, error)
	ListLatest(ctx context.Context, userID int64, limit int) ([]models.Word, error)
	FindByKey(ctx context.Context, userID int64, german string, wordType models.WordType) (*models.Word, error)
	Create(ctx context.Context, word *models.Word) error
}

// Service implements display names, friend requests and word sharing
type Service struct {
	users   UserStore
	friends FriendStore
	words   WordStore
	log     *logger.Logger
	now     func() time.Time
}

// NewService creates the social service
func NewService(users UserStore, friends FriendStore, words WordStore, log *logger.Logger) *Service {
	return &Service{
		users:   users,
		friends: friends,
		words:   words,
		log:     log,
		now:     time.Now,
	}
}

// ValidateDisplayName checks length and the allowed characters
func ValidateDisplayName(name string) error {
	n := utf8.RuneCountInString(name)
	if n < 3 || n > 24 {
		return ErrInvalidName
	}
	for _, r := range name {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' && r != '-' {
			return ErrInvalidName
		}
	}
	return nil
}

// SetDisplayName claims a public name; names are unique ignoring case
func (s *Service) SetDisplayName(ctx context.Context, userID int64, name string) error {
	name = strings.TrimSpace(name)
	if err := ValidateDisplayName(name); err != nil {
		return err
	}

	existing, err := s.users.FindByDisplayName(ctx, name)
	switch {
	case err == nil && existing.ID != userID:
		return ErrNameTaken
	case err != nil && !errors.Is(err, database.ErrNotFound):
		return errors.Wrap(err, "check display name")
	}

	if err := s.users.SetDisplayName(ctx, userID, name); err != nil {
		return errors.Wrap(err, "save display name")
	}
	return nil
}

// Search finds other users whose display name starts with prefix
func (s *Service) Search(ctx context.Context, userID int64, prefix string) ([]models.User, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return nil, nil
	}
	users, err := s.users.SearchByDisplayName(ctx, prefix, searchLimit+1)
	if err != nil {
		return nil, errors.Wrap(err, "search users")
	}
	out := make([]models.User, 0, len(users))
	for _, u := range users {
		if u.ID != userID && len(out) < searchLimit {
			out = append(out, u)
		}
	}
	return out, nil
}

// SendRequest invites the user with the given display name
func (s *Service) SendRequest(ctx context.Context, fromID int64, toName string) (*models.FriendRequest, error) {
	from, err := s.users.GetByID(ctx, fromID)
	if err != nil {
		return nil, errors.Wrap(err, "load sender")
	}
	if from.DisplayName == "" {
		return nil, ErrNoDisplayName
	}

	to, err := s.users.FindByDisplayName(ctx, toName)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "find recipient")
	}
	if to.ID == fromID {
		return nil, ErrSelfRequest
	}

	friends, err := s.friends.AreFriends(ctx, fromID, to.ID)
	if err != nil {
		return nil, errors.Wrap(err, "check friendship")
	}
	if friends {
		return nil, ErrAlreadyFriends
	}
	for _, pair := range [][2]int64{{fromID, to.ID}, {to.ID, fromID}} {
		_, err := s.friends.FindRequest(ctx, pair[0], pair[1])
		if err == nil {
			return nil, ErrRequestExists
		}
		if !errors.Is(err, database.ErrNotFound) {
			return nil, errors.Wrap(err, "check pending requests")
		}
	}

	req := &models.FriendRequest{
		ID:              uuid.NewString(),
		FromID:          fromID,
		FromDisplayName: from.DisplayName,
		ToID:            to.ID,
		ToDisplayName:   to.DisplayName,
		Status:          models.RequestPending,
		CreatedAt:       s.now(),
	}
	if err := s.friends.CreateRequest(ctx, req); err != nil {
		return nil, errors.Wrap(err, "create friend request")
	}
	s.log.Info("friend request sent", "from", fromID, "to", to.ID, "request_id", req.ID)
	return req, nil
}

// Pending lists the requests waiting for the user's answer
func (s *Service) Pending(ctx context.Context, userID int64) ([]models.FriendRequest, error) {
	reqs, err := s.friends.PendingFor(ctx, userID)
	return reqs, errors.Wrap(err, "load pending requests")
}

func (s *Service) pendingRequestFor(ctx context.Context, userID int64, requestID string) (*models.FriendRequest, error) {
	req, err := s.friends.GetRequest(ctx, requestID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrRequestNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "load friend request")
	}
	if req.ToID != userID {
		return nil, ErrForbidden
	}
	if req.Status != models.RequestPending {
		return nil, ErrRequestNotFound
	}
	return req, nil
}

// Accept confirms a request addressed to userID
func (s *Service) Accept(ctx context.Context, userID int64, requestID string) (*models.FriendRequest, error) {
	req, err := s.pendingRequestFor(ctx, userID, requestID)
	if err != nil {
		return nil, err
	}
	if err := s.friends.Accept(ctx, req, s.now()); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, errors.Wrap(err, "accept friend request")
	}
	s.log.Info("friend request accepted", "from", req.FromID, "to", req.ToID)
	return req, nil
}

// Decline deletes a request addressed to userID
func (s *Service) Decline(ctx context.Context, userID int64, requestID string) (*models.FriendRequest, error) {
	req, err := s.pendingRequestFor(ctx, userID, requestID)
	if err != nil {
		return nil, err
	}
	if err := s.friends.DeleteRequest(ctx, req.ID); err != nil {
		return nil, errors.Wrap(err, "decline friend request")
	}
	return req, nil
}

// Friends lists the user's friends
func (s *Service) Friends(ctx context.Context, userID int64) ([]models.Friend, error) {
	friends, err := s.friends.ListByUser(ctx, userID)
	return friends, errors.Wrap(err, "load friends")
}

// RemoveFriend ends a friendship for both sides
func (s *Service) RemoveFriend(ctx context.Context, userID, friendID int64) error {
	if err := s.requireFriend(ctx, userID, friendID); err != nil {
		return err
	}
	return errors.Wrap(s.friends.Remove(ctx, userID, friendID), "remove friend")
}

func (s *Service) requireFriend(ctx context.Context, userID, friendID int64) error {
	ok, err := s.friends.AreFriends(ctx, userID, friendID)
	if err != nil {
		return errors.Wrap(err, "check friendship")
	}
	if !ok {
		return ErrNotFriends
	}
	return nil
}

// FriendWords returns a friend's latest words for read-only play
func (s *Service) FriendWords(ctx context.Context, userID, friendID int64) ([]models.Word, error) {
	if err := s.requireFriend(ctx, userID, friendID); err != nil {
		return nil, err
	}
	words, err := s.words.ListLatest(ctx, friendID, FriendPlayLimit)
	if err != nil {
		return nil, errors.Wrap(err, "load friend words")
	}
	return words, nil
}

// ImportResult counts the outcome of an import
type ImportResult struct {
	Imported int
	Skipped  int
}

// ImportWords copies a friend's words into the user's vocabulary.
// Words the user already has (same German term and type) are skipped.
func (s *Service) ImportWords(ctx context.Context, userID, friendID int64) (ImportResult, error) {
	var res ImportResult
	if err := s.requireFriend(ctx, userID, friendID); err != nil {
		return res, err
	}

	friend, err := s.users.GetByID(ctx, friendID)
	if err != nil {
		return res, errors.Wrap(err, "load friend")
	}
	source := friend.DisplayName
	if source == "" {
		source = friend.Username
	}

	words, err := s.words.ListByUser(ctx, friendID)
	if err != nil {
		return res, errors.Wrap(err, "load friend words")
	}

	for _, w := range words {
		_, err := s.words.FindByKey(ctx, userID, w.German, w.Type)
		if err == nil {
			res.Skipped++
			continue
		}
		if !errors.Is(err, database.ErrNotFound) {
			return res, errors.Wrap(err, "check existing word")
		}

		cp := w
		cp.ID = 0
		cp.UserID = userID
		cp.CategoryID = 0
		cp.ImportedFrom = source
		if err := s.words.Create(ctx, &cp); err != nil {
			return res, errors.Wrapf(err, "import word %q", w.German)
		}
		res.Imported++
	}

	s.log.Info("friend words imported", "user_id", userID, "friend_id", friendID,
		"imported", res.Imported, "skipped", res.Skipped)
	return res, nil
}
