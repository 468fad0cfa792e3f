package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/watchparty/server/internal/service/auth"
	"github.com/watchparty/server/internal/service/room"
	"github.com/watchparty/server/pkg/rest"
)

func (c controller) urlParamUUID(r *http.Request, key string) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, key))
}

type registerInput struct {
	Username string `json:"username" validate:"required,min=2,max=32"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

func (c controller) register(w http.ResponseWriter, r *http.Request) {
	var input registerInput
	if err := rest.ReadJSON(r, &input); err != nil {
		rest.WriteJSON(w, http.StatusUnprocessableEntity, rest.Envelope{"error": err.Error()})
		return
	}

	if validationErrors, ok := c.validate.Validate(input); !ok {
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"errors": validationErrors})
		return
	}

	user, err := c.authService.Register(r.Context(), &auth.RegisterParams{
		Username: input.Username,
		Email:    input.Email,
		Password: input.Password,
	})
	if err != nil {
		if errors.Is(err, auth.ErrUserAlreadyExists) {
			rest.WriteJSON(w, http.StatusConflict, rest.Envelope{"error": "user already exists"})
			return
		}
		c.logger.ErrorContext(r.Context(), "failed to register user", "error", err)
		rest.WriteJSON(w, http.StatusInternalServerError, rest.Envelope{"error": "internal error"})
		return
	}

	rest.WriteJSON(w, http.StatusCreated, rest.Envelope{"user": user})
}

type loginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (c controller) login(w http.ResponseWriter, r *http.Request) {
	var input loginInput
	if err := rest.ReadJSON(r, &input); err != nil {
		rest.WriteJSON(w, http.StatusUnprocessableEntity, rest.Envelope{"error": err.Error()})
		return
	}

	if validationErrors, ok := c.validate.Validate(input); !ok {
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"errors": validationErrors})
		return
	}

	loginResponse, err := c.authService.Login(r.Context(), &auth.LoginParams{
		Email:    input.Email,
		Password: input.Password,
	})
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			rest.WriteJSON(w, http.StatusUnauthorized, rest.Envelope{"error": "invalid credentials"})
			return
		}
		c.logger.ErrorContext(r.Context(), "failed to login", "error", err)
		rest.WriteJSON(w, http.StatusInternalServerError, rest.Envelope{"error": "internal error"})
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{
		"user":         loginResponse.User,
		"access_token": loginResponse.AccessToken,
	})
}

type createRoomInput struct {
	Name string `json:"name" validate:"required,min=1,max=64"`
}

func (c controller) createRoom(w http.ResponseWriter, r *http.Request) {
	identity, _ := c.getIdentityFromCtx(r.Context())

	var input createRoomInput
	if err := rest.ReadJSON(r, &input); err != nil {
		rest.WriteJSON(w, http.StatusUnprocessableEntity, rest.Envelope{"error": err.Error()})
		return
	}

	if validationErrors, ok := c.validate.Validate(input); !ok {
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"errors": validationErrors})
		return
	}

	created, err := c.roomService.CreateRoom(r.Context(), &room.CreateRoomParams{
		Name:      input.Name,
		CreatedBy: identity.UserId,
	})
	if err != nil {
		c.logger.ErrorContext(r.Context(), "failed to create room", "error", err)
		rest.WriteJSON(w, http.StatusInternalServerError, rest.Envelope{"error": "internal error"})
		return
	}

	rest.WriteJSON(w, http.StatusCreated, rest.Envelope{"room": created})
}

func (c controller) listRooms(w http.ResponseWriter, r *http.Request) {
	limit := 50
	offset := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	rooms, err := c.roomService.ListRooms(r.Context(), limit, offset)
	if err != nil {
		c.logger.ErrorContext(r.Context(), "failed to list rooms", "error", err)
		rest.WriteJSON(w, http.StatusInternalServerError, rest.Envelope{"error": "internal error"})
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"rooms": rooms})
}

func (c controller) myRooms(w http.ResponseWriter, r *http.Request) {
	identity, _ := c.getIdentityFromCtx(r.Context())

	rooms, err := c.roomService.MyRooms(r.Context(), identity.UserId)
	if err != nil {
		c.logger.ErrorContext(r.Context(), "failed to list my rooms", "error", err)
		rest.WriteJSON(w, http.StatusInternalServerError, rest.Envelope{"error": "internal error"})
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"rooms": rooms})
}

func (c controller) getRoomDetail(w http.ResponseWriter, r *http.Request) {
	roomId, err := c.urlParamUUID(r, "room-id")
	if err != nil {
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"error": "invalid room id"})
		return
	}

	detail, err := c.roomService.GetRoomDetail(r.Context(), roomId)
	if err != nil {
		if errors.Is(err, room.ErrRoomNotFound) {
			rest.WriteJSON(w, http.StatusNotFound, rest.Envelope{"error": "room not found"})
			return
		}
		c.logger.ErrorContext(r.Context(), "failed to get room detail", "error", err)
		rest.WriteJSON(w, http.StatusInternalServerError, rest.Envelope{"error": "internal error"})
		return
	}

	rest.WriteJSON(w, http.StatusOK, detail)
}

func (c controller) removeRoom(w http.ResponseWriter, r *http.Request) {
	roomId, err := c.urlParamUUID(r, "room-id")
	if err != nil {
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"error": "invalid room id"})
		return
	}

	if err := c.roomService.RemoveRoom(r.Context(), roomId); err != nil {
		if errors.Is(err, room.ErrRoomNotFound) {
			rest.WriteJSON(w, http.StatusNotFound, rest.Envelope{"error": "room not found"})
			return
		}
		c.logger.ErrorContext(r.Context(), "failed to remove room", "error", err)
		rest.WriteJSON(w, http.StatusInternalServerError, rest.Envelope{"error": "internal error"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type addVideoInput struct {
	Title    string   `json:"title" validate:"required,min=1,max=256"`
	URL      string   `json:"url" validate:"required,url"`
	Duration *float64 `json:"duration" validate:"omitempty,gte=0"`
}

func (c controller) addVideo(w http.ResponseWriter, r *http.Request) {
	identity, _ := c.getIdentityFromCtx(r.Context())

	roomId, err := c.urlParamUUID(r, "room-id")
	if err != nil {
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"error": "invalid room id"})
		return
	}

	var input addVideoInput
	if err := rest.ReadJSON(r, &input); err != nil {
		rest.WriteJSON(w, http.StatusUnprocessableEntity, rest.Envelope{"error": err.Error()})
		return
	}

	if validationErrors, ok := c.validate.Validate(input); !ok {
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"errors": validationErrors})
		return
	}

	video, err := c.roomService.AddVideo(r.Context(), &room.AddVideoParams{
		RoomId:   roomId,
		Title:    input.Title,
		URL:      input.URL,
		Duration: input.Duration,
		AddedBy:  identity.UserId,
	})
	if err != nil {
		if errors.Is(err, room.ErrRoomNotFound) {
			rest.WriteJSON(w, http.StatusNotFound, rest.Envelope{"error": "room not found"})
			return
		}
		c.logger.ErrorContext(r.Context(), "failed to add video", "error", err)
		rest.WriteJSON(w, http.StatusInternalServerError, rest.Envelope{"error": "internal error"})
		return
	}

	rest.WriteJSON(w, http.StatusCreated, rest.Envelope{"video": video})
}

func (c controller) listVideos(w http.ResponseWriter, r *http.Request) {
	roomId, err := c.urlParamUUID(r, "room-id")
	if err != nil {
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"error": "invalid room id"})
		return
	}

	videos, err := c.roomService.ListVideos(r.Context(), roomId)
	if err != nil {
		if errors.Is(err, room.ErrRoomNotFound) {
			rest.WriteJSON(w, http.StatusNotFound, rest.Envelope{"error": "room not found"})
			return
		}
		c.logger.ErrorContext(r.Context(), "failed to list videos", "error", err)
		rest.WriteJSON(w, http.StatusInternalServerError, rest.Envelope{"error": "internal error"})
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"videos": videos})
}

func (c controller) removeVideo(w http.ResponseWriter, r *http.Request) {
	roomId, err := c.urlParamUUID(r, "room-id")
	if err != nil {
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"error": "invalid room id"})
		return
	}

	videoId, err := c.urlParamUUID(r, "video-id")
	if err != nil {
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"error": "invalid video id"})
		return
	}

	if err := c.roomService.RemoveVideo(r.Context(), &room.RemoveVideoParams{
		RoomId:  roomId,
		VideoId: videoId,
	}); err != nil {
		if errors.Is(err, room.ErrVideoNotFound) {
			rest.WriteJSON(w, http.StatusNotFound, rest.Envelope{"error": "video not found"})
			return
		}
		c.logger.ErrorContext(r.Context(), "failed to remove video", "error", err)
		rest.WriteJSON(w, http.StatusInternalServerError, rest.Envelope{"error": "internal error"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type inviteParticipantInput struct {
	UserId string `json:"user_id" validate:"required,uuid"`
}

func (c controller) inviteParticipant(w http.ResponseWriter, r *http.Request) {
	roomId, err := c.urlParamUUID(r, "room-id")
	if err != nil {
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"error": "invalid room id"})
		return
	}

	var input inviteParticipantInput
	if err := rest.ReadJSON(r, &input); err != nil {
		rest.WriteJSON(w, http.StatusUnprocessableEntity, rest.Envelope{"error": err.Error()})
		return
	}

	if validationErrors, ok := c.validate.Validate(input); !ok {
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"errors": validationErrors})
		return
	}

	userId, err := uuid.Parse(input.UserId)
	if err != nil {
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"error": "invalid user id"})
		return
	}

	if err := c.roomService.InviteParticipant(r.Context(), &room.InviteParticipantParams{
		RoomId: roomId,
		UserId: userId,
	}); err != nil {
		switch {
		case errors.Is(err, room.ErrRoomNotFound):
			rest.WriteJSON(w, http.StatusNotFound, rest.Envelope{"error": "room not found"})
		case errors.Is(err, room.ErrUserNotFound):
			rest.WriteJSON(w, http.StatusNotFound, rest.Envelope{"error": "user not found"})
		default:
			c.logger.ErrorContext(r.Context(), "failed to invite participant", "error", err)
			rest.WriteJSON(w, http.StatusInternalServerError, rest.Envelope{"error": "internal error"})
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
