package server

import (
	"net/http"

	"github.com/Luismorlan/feedsim/model"
	"github.com/Luismorlan/feedsim/store"
	"github.com/gin-gonic/gin"
	"github.com/jinzhu/copier"
	"github.com/pkg/errors"
)

type credentials struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email"`
}

// registerRequest mirrors model.User field by field so it can be copied
// over, plus the interest names of the newcomer.
type registerRequest struct {
	Username       string   `json:"username" binding:"required"`
	Email          string   `json:"email"`
	Password       string   `json:"password"`
	Leaning        string   `json:"leaning"`
	UserType       string   `json:"user_type"`
	Age            int      `json:"age"`
	Oe             string   `json:"oe"`
	Co             string   `json:"co"`
	Ex             string   `json:"ex"`
	Ag             string   `json:"ag"`
	Ne             string   `json:"ne"`
	RecsysType     string   `json:"rec_sys"`
	FrecsysType    string   `json:"frec_sys"`
	Language       string   `json:"language"`
	Owner          string   `json:"owner"`
	EducationLevel string   `json:"education_level"`
	JoinedOn       int64    `json:"joined_on"`
	Gender         string   `json:"gender"`
	Nationality    string   `json:"nationality"`
	RoundActions   int      `json:"round_actions"`
	Toxicity       string   `json:"toxicity"`
	IsPage         bool     `json:"is_page"`
	Profession     string   `json:"profession"`
	Interests      []string `json:"interests"`
}

type updateUserRequest struct {
	credentials
	RecsysType  string `json:"recsys_type"`
	FrecsysType string `json:"frecsys_type"`
}

// userProfile is the public view of a user, without the password.
type userProfile struct {
	Id             int64    `json:"id"`
	Username       string   `json:"username"`
	Email          string   `json:"email"`
	Leaning        string   `json:"leaning"`
	UserType       string   `json:"user_type"`
	Age            int      `json:"age"`
	Oe             string   `json:"oe"`
	Co             string   `json:"co"`
	Ex             string   `json:"ex"`
	Ag             string   `json:"ag"`
	Ne             string   `json:"ne"`
	RecsysType     string   `json:"rec_sys"`
	FrecsysType    string   `json:"frec_sys"`
	Language       string   `json:"language"`
	Owner          string   `json:"owner"`
	EducationLevel string   `json:"education_level"`
	JoinedOn       int64    `json:"joined_on"`
	Gender         string   `json:"gender"`
	Nationality    string   `json:"nationality"`
	RoundActions   int      `json:"round_actions"`
	Toxicity       string   `json:"toxicity"`
	IsPage         bool     `json:"is_page"`
	Profession     string   `json:"profession"`
	Interests      []string `json:"interests"`
}

// register creates the account and its interests, stamped with the joining
// round. Registering an existing username and email pair is a no-op that
// returns the existing id.
func (s *Server) register(c *gin.Context) {
	var req registerRequest
	if !bind(c, &req) {
		return
	}
	ctx := c.Request.Context()

	existing, err := s.store.UserByCredentials(ctx, req.Username, req.Email)
	if err == nil {
		ok(c, gin.H{"id": existing.Id})
		return
	}
	if !errors.Is(err, store.ErrNotFound) {
		fail(c, err)
		return
	}

	var user model.User
	if err := copier.Copy(&user, &req); err != nil {
		fail(c, errors.Wrap(err, "fail to copy registration"))
		return
	}
	user, err = s.store.RegisterUser(ctx, user)
	if err != nil {
		fail(c, err)
		return
	}

	iids := make([]int64, 0, len(req.Interests))
	for _, name := range req.Interests {
		if name == "" {
			continue
		}
		interest, err := s.store.InterestByName(ctx, name)
		if err != nil {
			fail(c, err)
			return
		}
		iids = append(iids, interest.Iid)
	}
	if err := s.store.AddUserInterests(ctx, user.Id, iids, user.JoinedOn); err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"id": user.Id})
}

func (s *Server) getUser(c *gin.Context) {
	var req credentials
	if !bind(c, &req) {
		return
	}
	ctx := c.Request.Context()
	user, err := s.store.UserByCredentials(ctx, req.Username, req.Email)
	if err != nil {
		fail(c, err)
		return
	}
	var profile userProfile
	if err := copier.Copy(&profile, &user); err != nil {
		fail(c, errors.Wrap(err, "fail to copy user profile"))
		return
	}
	if profile.Interests, err = s.store.UserInterestNames(ctx, user.Id); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// updateUser changes the feed and follow strategies, an empty value keeps
// the current one.
func (s *Server) updateUser(c *gin.Context) {
	var req updateUserRequest
	if !bind(c, &req) {
		return
	}
	ctx := c.Request.Context()
	user, err := s.store.UserByCredentials(ctx, req.Username, req.Email)
	if err != nil {
		fail(c, err)
		return
	}
	if err := s.store.UpdateStrategies(ctx, user.Id, req.RecsysType, req.FrecsysType); err != nil {
		fail(c, err)
		return
	}
	ok(c, nil)
}
