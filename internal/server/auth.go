package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"
)

type Credentials struct {
	Password string `json:"password"`
	Username string `json:"username"`
}

type Claims struct {
	Uid string `json:"uid"`
	jwt.RegisteredClaims
}

// userid -> token, err
func (s *Server) signJWT(claim Claims) (string, error) {
	claim.ExpiresAt = jwt.NewNumericDate(time.Now().Add(time.Hour * 24 * 30))
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claim)
	return token.SignedString(s.secret)
}

// token -> userid, ok
func (s *Server) parseJWT(token string) (string, bool) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(_ *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		return "", false
	}

	if claim, ok := parsed.Claims.(*Claims); ok && parsed.Valid {
		return claim.Uid, true
	}
	return "", false
}

func (s *Server) middleware(next func(http.ResponseWriter, *http.Request)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.users == nil {
			next(w, r)
			return
		}

		extracted := strings.Split(r.Header.Get("Authorization"), "Bearer ")
		if len(extracted) != 2 {
			http.Error(w, "Invalid token", http.StatusForbidden)
			return
		}

		uid, ok := s.parseJWT(extracted[1])
		if !ok {
			http.Error(w, "Invalid token", http.StatusForbidden)
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), ctxUid, uid)))
	}
}

type ctxKey string

const ctxUid ctxKey = "uid"

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	if s.users == nil {
		http.Error(w, "Auth disabled", http.StatusNotFound)
		return
	}

	body, _ := io.ReadAll(r.Body)
	var user Credentials
	if json.Unmarshal(body, &user) != nil {
		http.Error(w, "Bad format", http.StatusForbidden)
		return
	}

	var rec struct {
		Username string `bson:"username"`
		Hash     []byte `bson:"hash"`
	}
	err := s.users.FindOne(r.Context(), bson.D{{Key: "username", Value: user.Username}}).Decode(&rec)
	if err != nil || bcrypt.CompareHashAndPassword(rec.Hash, []byte(user.Password)) != nil {
		http.Error(w, "Invalid credentials", http.StatusForbidden)
		return
	}

	token, err := s.signJWT(Claims{Uid: user.Username})
	if err != nil {
		http.Error(w, "Token error", http.StatusInternalServerError)
		return
	}
	fmt.Fprint(w, token)
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	if s.users == nil {
		http.Error(w, "Auth disabled", http.StatusNotFound)
		return
	}

	body, _ := io.ReadAll(r.Body)
	var user Credentials
	if json.Unmarshal(body, &user) != nil || user.Username == "" {
		http.Error(w, "Bad format", http.StatusForbidden)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		http.Error(w, "Bad format", http.StatusForbidden)
		return
	}

	filter := bson.D{{Key: "username", Value: user.Username}}
	update := bson.D{{Key: "$setOnInsert", Value: bson.D{{Key: "hash", Value: hash}}}}
	opts := options.Update().SetUpsert(true)

	res, err := s.users.UpdateOne(r.Context(), filter, update, opts)
	if err != nil {
		http.Error(w, "Store error", http.StatusInternalServerError)
		return
	}
	if res.UpsertedCount == 0 {
		http.Error(w, "Already exists", http.StatusForbidden)
		return
	}

	token, err := s.signJWT(Claims{Uid: user.Username})
	if err != nil {
		http.Error(w, "Token error", http.StatusInternalServerError)
		return
	}
	fmt.Fprint(w, token)
}
