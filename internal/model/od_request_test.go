package model

import "testing"

func TestCanTransition_LegalEdges(t *testing.T) {
	legal := [][2]string{
		{StatusPending, StatusApprovedByAdvisor},
		{StatusPending, StatusRejected},
		{StatusPending, StatusForwardedToAdmin},
		{StatusApprovedByAdvisor, StatusApprovedByHOD},
		{StatusApprovedByAdvisor, StatusRejected},
		{StatusForwardedToAdmin, StatusForwardedToHOD},
		{StatusForwardedToAdmin, StatusRejected},
		{StatusForwardedToHOD, StatusApprovedByHOD},
		{StatusForwardedToHOD, StatusRejected},
	}
	for _, e := range legal {
		if !CanTransition(e[0], e[1]) {
			t.Errorf("%s → %s 应为合法边", e[0], e[1])
		}
	}
}

func TestCanTransition_IllegalEdges(t *testing.T) {
	illegal := [][2]string{
		{StatusPending, StatusApprovedByHOD}, // 不允许跳过顾问审批
		{StatusPending, StatusForwardedToHOD},
		{StatusApprovedByHOD, StatusRejected}, // 终态不可再转移
		{StatusApprovedByHOD, StatusPending},
		{StatusRejected, StatusPending}, // rejected 不可重开
		{StatusRejected, StatusApprovedByAdvisor},
		{StatusForwardedToAdmin, StatusApprovedByHOD}, // 升级分支只转发不审批
		{StatusApprovedByAdvisor, StatusForwardedToAdmin},
	}
	for _, e := range illegal {
		if CanTransition(e[0], e[1]) {
			t.Errorf("%s → %s 应为非法边", e[0], e[1])
		}
	}
}

func TestIsTerminalStatus(t *testing.T) {
	if !IsTerminalStatus(StatusApprovedByHOD) {
		t.Error("approved_by_hod 应为终态")
	}
	if !IsTerminalStatus(StatusRejected) {
		t.Error("rejected 应为终态")
	}
	for _, s := range []string{StatusPending, StatusApprovedByAdvisor, StatusForwardedToHOD, StatusForwardedToAdmin} {
		if IsTerminalStatus(s) {
			t.Errorf("%s 不应为终态", s)
		}
	}
}
