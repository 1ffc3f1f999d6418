package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/dohyun-ko/animal-care-api/internal/auth"
	"github.com/dohyun-ko/animal-care-api/internal/model"
	"github.com/dohyun-ko/animal-care-api/internal/repository"
)

// fakeReplies is an in-memory ReplyStore.
type fakeReplies struct {
	byID   map[uint64]model.InquiryReply
	nextID uint64
}

func newFakeReplies(rows ...model.InquiryReply) *fakeReplies {
	f := &fakeReplies{byID: map[uint64]model.InquiryReply{}, nextID: 1}
	for _, rep := range rows {
		if rep.ID >= f.nextID {
			f.nextID = rep.ID + 1
		}
		f.byID[rep.ID] = rep
	}
	return f
}

func (f *fakeReplies) Create(_ context.Context, rep *model.InquiryReply) (uint64, error) {
	rep.ID = f.nextID
	f.nextID++
	rep.CreatedAt = time.Now().UTC()
	rep.UpdatedAt = rep.CreatedAt
	f.byID[rep.ID] = *rep
	return rep.ID, nil
}

func (f *fakeReplies) GetByID(_ context.Context, id uint64) (model.InquiryReply, error) {
	if rep, ok := f.byID[id]; ok {
		return rep, nil
	}
	return model.InquiryReply{}, repository.ErrNotFound
}

func (f *fakeReplies) ListByInquiry(_ context.Context, inquiryID uint64) ([]model.InquiryReply, error) {
	var out []model.InquiryReply
	for id := uint64(1); id < f.nextID; id++ {
		if rep, ok := f.byID[id]; ok && rep.InquiryID == inquiryID {
			out = append(out, rep)
		}
	}
	return out, nil
}

func (f *fakeReplies) Update(_ context.Context, id uint64, content string, isPublic bool) error {
	rep, ok := f.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	rep.Content, rep.IsPublic = content, isPublic
	rep.UpdatedAt = time.Now().UTC()
	f.byID[id] = rep
	return nil
}

func (f *fakeReplies) Delete(_ context.Context, id uint64) error {
	if _, ok := f.byID[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

func adminUser() model.User {
	return model.User{ID: 9, LoginID: "root", Nickname: "root-nick", Role: model.RoleAdmin}
}

func newReplyHarness(replies *fakeReplies) (*ReplyHandler, *fakeInquiries) {
	inquiries := seedInquiries()
	h := NewReplyHandler(replies, inquiries, newFakeUsers(testUser(), adminUser()), zerolog.Nop())
	return h, inquiries
}

// Replies under a private inquiry stay structurally present for every
// viewer; only the content field collapses to null.
func TestReplyListUnderPrivateParent(t *testing.T) {
	replies := newFakeReplies(model.InquiryReply{
		ID: 1, InquiryID: 2, AdminUserID: 9, AdminNickname: "root-nick",
		Content: "contact animal control", IsPublic: false,
	})
	h, _ := newReplyHarness(replies)

	cases := []struct {
		name        string
		viewer      auth.Principal
		wantContent bool
	}{
		{"anonymous", auth.Anonymous, false},
		{"stranger", asBob, false},
		{"owner of parent", asAlice, true},
		{"admin", asAdmin, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, rec := apiRequest(http.MethodGet, "/api/inquiries/2/replies", "", tc.viewer, map[string]string{"id": "2"})
			if err := h.List(c); err != nil {
				t.Fatalf("handler: %v", err)
			}
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, entries must be listed for everyone", rec.Code)
			}
			var items []replyItem
			if err := json.Unmarshal(rec.Body.Bytes(), &items); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if len(items) != 1 {
				t.Fatalf("items = %d, want 1", len(items))
			}
			if tc.wantContent {
				if items[0].Content == nil || *items[0].Content != "contact animal control" {
					t.Error("content withheld from a permitted viewer")
				}
			} else if items[0].Content != nil {
				t.Errorf("content %q leaked to %s", *items[0].Content, tc.name)
			}
			// Metadata stays visible either way.
			if items[0].AdminNickname != "root-nick" {
				t.Errorf("adminNickname = %q", items[0].AdminNickname)
			}
		})
	}
}

func TestReplyListUnderPublicParent(t *testing.T) {
	replies := newFakeReplies(model.InquiryReply{
		ID: 1, InquiryID: 1, AdminUserID: 9, AdminNickname: "root-nick",
		Content: "see our vaccination page", IsPublic: true,
	})
	h, _ := newReplyHarness(replies)

	c, rec := apiRequest(http.MethodGet, "/api/inquiries/1/replies", "", auth.Anonymous, map[string]string{"id": "1"})
	if err := h.List(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	var items []replyItem
	if err := json.Unmarshal(rec.Body.Bytes(), &items); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(items) != 1 || items[0].Content == nil {
		t.Fatal("anonymous viewer should read replies under a public inquiry")
	}
}

func TestReplyCreateInheritsParentVisibility(t *testing.T) {
	replies := newFakeReplies()
	h, _ := newReplyHarness(replies)

	// Under the private inquiry the reply is private, no matter what.
	c, rec := apiRequest(http.MethodPost, "/api/inquiries/2/replies", `{"content":"answer"}`, asAdmin, map[string]string{"id": "2"})
	if err := h.Create(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	stored, err := replies.GetByID(context.Background(), 1)
	if err != nil {
		t.Fatalf("stored: %v", err)
	}
	if stored.IsPublic {
		t.Error("reply under private parent stored public")
	}
	if stored.AdminNickname != "root-nick" || stored.AdminUserID != 9 {
		t.Errorf("admin snapshot = %+v", stored)
	}

	// Under the public inquiry it is public.
	c, rec = apiRequest(http.MethodPost, "/api/inquiries/1/replies", `{"content":"answer"}`, asAdmin, map[string]string{"id": "1"})
	if err := h.Create(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	stored, _ = replies.GetByID(context.Background(), 2)
	if !stored.IsPublic {
		t.Error("reply under public parent stored private")
	}
}

func TestReplyCreateUnknownParent(t *testing.T) {
	h, _ := newReplyHarness(newFakeReplies())
	c, rec := apiRequest(http.MethodPost, "/api/inquiries/99/replies", `{"content":"x"}`, asAdmin, map[string]string{"id": "99"})
	if err := h.Create(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

// Toggling the parent to private must pull an existing public reply with it
// on the next write.
func TestReplyUpdateRecomputesVisibility(t *testing.T) {
	replies := newFakeReplies(model.InquiryReply{
		ID: 1, InquiryID: 1, AdminUserID: 9, AdminNickname: "root-nick",
		Content: "old answer", IsPublic: true,
	})
	h, inquiries := newReplyHarness(replies)

	if err := inquiries.Update(context.Background(), 1, "vaccination schedule?", "public question", false); err != nil {
		t.Fatalf("parent update: %v", err)
	}

	c, rec := apiRequest(http.MethodPut, "/api/inquiries/1/replies/1", `{"content":"new answer"}`, asAdmin,
		map[string]string{"id": "1", "replyId": "1"})
	if err := h.Update(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}

	stored, _ := replies.GetByID(context.Background(), 1)
	if stored.IsPublic {
		t.Error("reply kept public after its parent went private")
	}
	if stored.Content != "new answer" {
		t.Errorf("content = %q", stored.Content)
	}
}

func TestReplyPathMismatch(t *testing.T) {
	replies := newFakeReplies(model.InquiryReply{ID: 1, InquiryID: 2, Content: "x", IsPublic: false})
	h, _ := newReplyHarness(replies)

	// Reply 1 belongs to inquiry 2; addressing it through inquiry 1 is a
	// client error, not a lookup miss.
	c, rec := apiRequest(http.MethodPut, "/api/inquiries/1/replies/1", `{"content":"y"}`, asAdmin,
		map[string]string{"id": "1", "replyId": "1"})
	if err := h.Update(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("update across inquiries = %d, want 400", rec.Code)
	}

	c, rec = apiRequest(http.MethodDelete, "/api/inquiries/1/replies/1", "", asAdmin,
		map[string]string{"id": "1", "replyId": "1"})
	if err := h.Delete(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("delete across inquiries = %d, want 400", rec.Code)
	}
}

func TestReplyDelete(t *testing.T) {
	replies := newFakeReplies(model.InquiryReply{ID: 1, InquiryID: 1, Content: "x", IsPublic: true})
	h, _ := newReplyHarness(replies)

	c, rec := apiRequest(http.MethodDelete, "/api/inquiries/1/replies/1", "", asAdmin,
		map[string]string{"id": "1", "replyId": "1"})
	if err := h.Delete(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if _, err := replies.GetByID(context.Background(), 1); err == nil {
		t.Error("reply still present after delete")
	}
}
